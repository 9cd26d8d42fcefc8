package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	mgr := NewJWTManager("secret", time.Hour)

	token, err := mgr.Generate(42, "alice", "alice@example.com")
	require.NoError(t, err)

	claims, err := mgr.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "alice@example.com", claims.Email)

	userID, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, int64(42), userID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret", time.Hour).Generate(1, "alice", "alice@example.com")
	require.NoError(t, err)

	_, err = NewJWTManager("other-secret", time.Hour).Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	mgr := NewJWTManager("secret", -time.Minute)

	token, err := mgr.Generate(1, "alice", "alice@example.com")
	require.NoError(t, err)

	_, err = mgr.Verify(token)
	require.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, err)

	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	token, err := ExtractTokenFromHeader(req)
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", token)

	req.Header.Set("Authorization", "abc.def.ghi")
	_, err = ExtractTokenFromHeader(req)
	require.Error(t, err)
}
