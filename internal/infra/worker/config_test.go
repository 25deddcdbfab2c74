package worker

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

var testMetrics = NewWorkerMetrics()

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.CronSchedule != "30 3 * * *" {
		t.Errorf("CronSchedule = %q, want '30 3 * * *'", cfg.CronSchedule)
	}
	if cfg.Timezone != "Asia/Tokyo" {
		t.Errorf("Timezone = %q, want 'Asia/Tokyo'", cfg.Timezone)
	}
	if cfg.TrainingTimeout != 30*time.Minute {
		t.Errorf("TrainingTimeout = %v, want 30m", cfg.TrainingTimeout)
	}
	if cfg.HealthPort != 9091 {
		t.Errorf("HealthPort = %d, want 9091", cfg.HealthPort)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestWorkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*WorkerConfig)
		want   string
	}{
		{
			name:   "invalid cron schedule",
			mutate: func(c *WorkerConfig) { c.CronSchedule = "not a schedule" },
			want:   "cron schedule",
		},
		{
			name:   "invalid timezone",
			mutate: func(c *WorkerConfig) { c.Timezone = "Mars/Olympus" },
			want:   "timezone",
		},
		{
			name:   "zero timeout",
			mutate: func(c *WorkerConfig) { c.TrainingTimeout = 0 },
			want:   "training timeout",
		},
		{
			name:   "privileged health port",
			mutate: func(c *WorkerConfig) { c.HealthPort = 80 },
			want:   "health port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	cfg, err := LoadConfigFromEnv(logger, testMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.CronSchedule != "30 3 * * *" {
		t.Errorf("CronSchedule = %q, want default", cfg.CronSchedule)
	}
}

func TestLoadConfigFromEnv_FallbackOnInvalid(t *testing.T) {
	t.Setenv("TRAINING_CRON_SCHEDULE", "definitely not cron")
	t.Setenv("TRAINING_TIMEOUT", "10h") // above the 4h ceiling

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	cfg, err := LoadConfigFromEnv(logger, testMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}

	if cfg.CronSchedule != "30 3 * * *" {
		t.Errorf("CronSchedule = %q, want fallback to default", cfg.CronSchedule)
	}
	if cfg.TrainingTimeout != 30*time.Minute {
		t.Errorf("TrainingTimeout = %v, want fallback to 30m", cfg.TrainingTimeout)
	}
	if !strings.Contains(buf.String(), "configuration fallback applied") {
		t.Error("expected fallback warnings in log output")
	}
}

func TestLoadConfigFromEnv_ValidOverrides(t *testing.T) {
	t.Setenv("TRAINING_CRON_SCHEDULE", "0 */6 * * *")
	t.Setenv("WORKER_TIMEZONE", "UTC")
	t.Setenv("TRAINING_TIMEOUT", "45m")
	t.Setenv("WORKER_HEALTH_PORT", "19191")

	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	cfg, err := LoadConfigFromEnv(logger, testMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}

	if cfg.CronSchedule != "0 */6 * * *" {
		t.Errorf("CronSchedule = %q", cfg.CronSchedule)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.TrainingTimeout != 45*time.Minute {
		t.Errorf("TrainingTimeout = %v", cfg.TrainingTimeout)
	}
	if cfg.HealthPort != 19191 {
		t.Errorf("HealthPort = %d", cfg.HealthPort)
	}
}
