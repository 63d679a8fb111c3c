package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeedUsers(t *testing.T) {
	users := parseSeedUsers("admin:admin123:Administrator:1,staff:staff123:Staff:0")
	require.Len(t, users, 2)

	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, "admin123", users[0].Password)
	assert.Equal(t, "Administrator", users[0].FullName)
	assert.True(t, users[0].CanViewFinancials)

	assert.Equal(t, "staff", users[1].Username)
	assert.False(t, users[1].CanViewFinancials)
}

func TestParseSeedUsersSkipsMalformed(t *testing.T) {
	users := parseSeedUsers("admin:admin123:Administrator:1, broken ,:x:y:1,viewer:pw:Viewer:0")
	require.Len(t, users, 2)
	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, "viewer", users[1].Username)
}

func TestParseSeedUsersEmpty(t *testing.T) {
	assert.Empty(t, parseSeedUsers(""))
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "KAFKA_TOPIC_STOCK_EVENTS", "KAFKA_CONSUMER_GROUP", "JWT_TTL_HOURS", "SEED_USERS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "stock-events", cfg.Kafka.TopicStock)
	assert.Equal(t, "backoffice-service-group", cfg.Kafka.ConsumerGroup)
	assert.Equal(t, 12, cfg.Auth.TokenTTLHours)
	assert.NotEmpty(t, cfg.Seed.Users)
}
