package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("REJECT_POLICY", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("SLA_DAYS", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "any", cfg.Lifecycle.RejectPolicy)
	assert.Equal(t, "any", cfg.Lifecycle.AssignPolicy)
	assert.Equal(t, 50, cfg.Reporting.SLADays)
	assert.Equal(t, "Asia/Bangkok", cfg.Reporting.Timezone)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, time.Hour, cfg.Redis.PublicSubmitWindow)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("COMPLAINT_DESK_ADDR", ":9090")
	t.Setenv("REJECT_POLICY", "pending_only")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("DATABASE_RUN_MIGRATIONS", "false")
	t.Setenv("PUBLIC_SUBMIT_WINDOW", "10m")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "pending_only", cfg.Lifecycle.RejectPolicy)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Database.RunMigrations)
	assert.Equal(t, 10*time.Minute, cfg.Redis.PublicSubmitWindow)
}
