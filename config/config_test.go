package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orrery.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.Clock.Rate != 1 || cfg.Clock.Paused {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Server.Tick != 100*time.Millisecond || cfg.Server.RenderAxes != AxesYUp {
		t.Errorf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Paths.MaxRadiusAU != 50 {
		t.Errorf("paths.max_radius_au = %v, want 50", cfg.Paths.MaxRadiusAU)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
catalog_file: bodies.yaml
clock:
  start: "2024-03-20T03:06:00Z"
  rate: 86400
server:
  http_addr: ":18080"
  tick: 250ms
  render_axes: ecliptic
  allowed_origins: ["https://orrery.example"]
ephemeris:
  workers: 3
`)
	t.Setenv("ORRERY_CLOCK_PAUSED", "true")
	t.Setenv("ORRERY_SERVER_HTTP_ADDR", ":28080")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	testCases := []struct {
		name      string
		got, want interface{}
	}{
		{"log level", cfg.LogLevel, "debug"},
		{"catalog", cfg.CatalogFile, "bodies.yaml"},
		{"rate", cfg.Clock.Rate, 86400.0},
		{"paused from env", cfg.Clock.Paused, true},
		{"http addr from env", cfg.Server.HTTPAddr, ":28080"},
		{"tick", cfg.Server.Tick, 250 * time.Millisecond},
		{"axes", cfg.Server.RenderAxes, AxesEcliptic},
		{"workers", cfg.Ephemeris.Workers, 3},
		{"metrics default kept", cfg.Server.MetricsAddr, ":9090"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://orrery.example" {
		t.Errorf("allowed_origins = %v", cfg.Server.AllowedOrigins)
	}

	start, err := cfg.Clock.StartTime(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(time.Date(2024, 3, 20, 3, 6, 0, 0, time.UTC)) {
		t.Errorf("StartTime = %v", start)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"bad level", "log_level: loud\n", "log_level"},
		{"bad start", "clock: {start: yesterday}\n", "clock.start"},
		{"bad axes", "server: {render_axes: z-up}\n", "render_axes"},
		{"zero tick", "server: {tick: 0s}\n", "server.tick"},
		{"tls without hosts", "server: {tls: {enabled: true}}\n", "tls.hosts"},
		{"negative workers", "ephemeris: {workers: -1}\n", "workers"},
		{"negative radius", "paths: {max_radius_au: -5}\n", "max_radius_au"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(viper.New(), writeConfig(t, tc.body))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestStartTimeDefaultsToNow(t *testing.T) {
	now := time.Date(2030, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	got, err := ClockConfig{}.StartTime(now)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(now) || got.Location() != time.UTC {
		t.Errorf("StartTime = %v, want %v in UTC", got, now)
	}
}
