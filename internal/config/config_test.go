package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
http_port = 9090
read_timeout = 20

[database]
host = "db.internal"
port = 5433
user = "scheduler"
password = "secret"
dbname = "scheduling"
sslmode = "require"

[logs]
file = "logs/scheduling.log"
level = "debug"

[metrics]
enabled = false

[kafka]
brokers = ["kafka-1:9092", "kafka-2:9092"]
topic = "scheduling.events.v2"

[client_service]
url = "http://client-service:8080"
timeout = 10

[waitlist]
sweep_schedule = "*/1 * * * *"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, 20, cfg.Server.ReadTimeout)
	assert.Equal(t, 15, cfg.Server.WriteTimeout, "unset fields keep defaults")

	assert.Equal(t,
		"host=db.internal port=5433 user=scheduler password=secret dbname=scheduling sslmode=require",
		cfg.Database.DSN())

	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "scheduling.events.v2", cfg.Kafka.Topic)
	assert.Equal(t, "*/1 * * * *", cfg.Waitlist.SweepSchedule)
}

func TestLoad_MinimalConfigUsesDefaults(t *testing.T) {
	path := writeConfig(t, `
[database]
user = "scheduler"
dbname = "scheduling"

[client_service]
url = "http://client-service:8080"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "logs/app.log", cfg.Logs.File)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Empty(t, cfg.Kafka.Brokers, "event publishing is off without brokers")
	assert.Equal(t, "scheduling.events", cfg.Kafka.Topic)
	assert.Equal(t, "*/5 * * * *", cfg.Waitlist.SweepSchedule)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing database user",
			content: `
[database]
dbname = "scheduling"

[client_service]
url = "http://client-service:8080"
`,
			wantErr: "database.user is required",
		},
		{
			name: "missing client service url",
			content: `
[database]
user = "scheduler"
dbname = "scheduling"
`,
			wantErr: "client_service.url is required",
		},
		{
			name: "invalid port",
			content: `
[server]
http_port = 70000

[database]
user = "scheduler"
dbname = "scheduling"

[client_service]
url = "http://client-service:8080"
`,
			wantErr: "invalid server.http_port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
