package main

import (
	"openchat/cmd/server"
)

func main() {
	srv := server.NewServer()
	defer srv.Shutdown()

	srv.Run()
}
