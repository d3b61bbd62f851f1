package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeybarrel/forum/config"
)

func init() {
	config.SetForTesting(config.AppConfig{JWTSecret: "test-secret"})
}

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(42, "alice", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken(1, "alice", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestBlacklistToken(t *testing.T) {
	token, err := GenerateToken(7, "bob", time.Hour)
	require.NoError(t, err)

	assert.False(t, IsTokenBlacklisted(token))
	BlacklistToken(token, time.Now().Add(time.Hour))
	assert.True(t, IsTokenBlacklisted(token))
}

func TestBlacklistExpiredTokenIsNoop(t *testing.T) {
	BlacklistToken("already-expired", time.Now().Add(-time.Minute))
	assert.False(t, IsTokenBlacklisted("already-expired"))
}
