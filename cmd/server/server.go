package server

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"openchat/internal/bus"
	"openchat/internal/config"
	"openchat/internal/database"
	"openchat/internal/handlers"
	"openchat/internal/stream"
	"openchat/internal/throttle"
	"openchat/internal/ws"
	"openchat/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	Hub        *ws.Hub
	Bus        bus.Broadcaster
	JWTManager *auth.JWTManager

	cfg *config.Config
}

func NewServer() *Server {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	setupLogging(cfg.LogLevel)

	dbConn := &database.Database{}
	if err := dbConn.Connect(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("Postgres connect failed")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid REDIS_URL")
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("Redis connect failed")
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	hub := ws.NewHub()

	// Реализация fan-out выбирается конфигурацией, не условиями в gateway
	var broadcaster bus.Broadcaster
	switch cfg.BusMode {
	case "local":
		broadcaster = bus.NewLocal(hub)
	default:
		broadcaster, err = bus.NewRedis(rdb, hub)
		if err != nil {
			log.Fatal().Err(err).Msg("Bus subscription failed")
		}
	}

	messages := stream.NewLog(rdb, cfg.StreamMaxLen)
	limiter := throttle.NewLimiter(rdb, cfg.ThrottleMaxMsgs, cfg.ThrottleWindow)

	bootstrapSuperuser(dbConn, cfg)

	gateway := handlers.NewChatGateway(hub, broadcaster, messages, limiter, dbConn)
	historyH := handlers.NewHistoryHandler(messages, dbConn)
	healthH := handlers.NewHealthHandler(dbConn, messages)
	authH := handlers.NewAuthHandler(dbConn, jwtMgr)

	router := gin.Default()
	APIEndpoints(router, jwtMgr, authH, gateway, historyH, healthH)

	return &Server{
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		Hub:        hub,
		Bus:        broadcaster,
		JWTManager: jwtMgr,
		cfg:        cfg,
	}
}

func (s *Server) Run() {
	log.Info().Str("port", s.cfg.Port).Msg("Server starting")
	if err := s.Router.Run(":" + s.cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Server run error")
	}
}

func (s *Server) Shutdown() {
	s.Bus.Close()
	s.Hub.Stop()
	s.Redis.Close()
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	log.Logger = log.Output(os.Stderr)
}

// bootstrapSuperuser создает начального суперпользователя, если задан
// ADMIN_EMAIL. Без него беседы и участники управляются внешними средствами.
func bootstrapSuperuser(db *database.Database, cfg *config.Config) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash admin password")
		return
	}

	user, err := db.EnsureSuperuser(cfg.AdminEmail, cfg.AdminUsername, string(hash))
	if err != nil {
		log.Error().Err(err).Msg("Failed to create initial superuser")
		return
	}

	log.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("Initial superuser ready")
}
