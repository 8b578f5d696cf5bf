package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse("/opt/insurelytics")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.DataPath != "/opt/insurelytics" {
		t.Errorf("DataPath = %q, want /opt/insurelytics", cfg.DataPath)
	}
	if cfg.LogDir != filepath.Join("/opt/insurelytics", "logs") {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.HoverFrameInterval != 16*time.Millisecond {
		t.Errorf("HoverFrameInterval = %v, want 16ms", cfg.HoverFrameInterval)
	}
	if cfg.LeaveClearDelay != 80*time.Millisecond {
		t.Errorf("LeaveClearDelay = %v, want 80ms", cfg.LeaveClearDelay)
	}
	if cfg.EnableMermaidCharts {
		t.Error("charts should be off by default")
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", cfg.MaxUploadBytes, 10<<20)
	}
	if cfg.ReferenceDir != "" {
		t.Errorf("ReferenceDir = %q, want empty", cfg.ReferenceDir)
	}
	if cfg.MetricsAddr != "" || cfg.OTelEndpoint != "" || !cfg.OTelEnabled {
		t.Errorf("telemetry defaults = %q %q %v", cfg.MetricsAddr, cfg.OTelEndpoint, cfg.OTelEnabled)
	}
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("DATA_PATH", "/data")
	t.Setenv("LOGS_FOLDER", "/var/log/ins")
	t.Setenv("REFERENCE_DIR", "/etc/ins/tables")
	t.Setenv("HOVER_FRAME_INTERVAL", "0s")
	t.Setenv("LEAVE_CLEAR_DELAY", "250ms")
	t.Setenv("ENABLE_MERMAID_CHARTS", "true")
	t.Setenv("MAX_UPLOAD_BYTES", "2048")
	t.Setenv("METRICS_ADDR", "127.0.0.1:9464")
	t.Setenv("OTEL_ENDPOINT", "http://collector:4318")
	t.Setenv("OTEL_ENABLED", "false")

	cfg, err := Parse("")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.DataPath != "/data" || cfg.LogDir != "/var/log/ins" || cfg.ReferenceDir != "/etc/ins/tables" {
		t.Errorf("paths = %q %q %q", cfg.DataPath, cfg.LogDir, cfg.ReferenceDir)
	}
	if cfg.HoverFrameInterval != 0 || cfg.LeaveClearDelay != 250*time.Millisecond {
		t.Errorf("delays = %v %v", cfg.HoverFrameInterval, cfg.LeaveClearDelay)
	}
	if !cfg.EnableMermaidCharts || cfg.MaxUploadBytes != 2048 {
		t.Errorf("charts = %v, max = %d", cfg.EnableMermaidCharts, cfg.MaxUploadBytes)
	}
	if cfg.MetricsAddr != "127.0.0.1:9464" || cfg.OTelEndpoint != "http://collector:4318" || cfg.OTelEnabled {
		t.Errorf("telemetry = %q %q %v", cfg.MetricsAddr, cfg.OTelEndpoint, cfg.OTelEnabled)
	}
}

func TestParse_LogDirFollowsDataPath(t *testing.T) {
	t.Setenv("DATA_PATH", "/srv/insurelytics")

	cfg, err := Parse("/opt/insurelytics")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogDir != filepath.Join("/srv/insurelytics", "logs") {
		t.Errorf("LogDir = %q, want it under DATA_PATH", cfg.LogDir)
	}
}

func TestParse_WorkingDirFallback(t *testing.T) {
	cfg, err := Parse("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataPath != "." {
		t.Errorf("DataPath = %q, want .", cfg.DataPath)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad duration", "LEAVE_CLEAR_DELAY", "soon"},
		{"negative duration", "HOVER_FRAME_INTERVAL", "-5ms"},
		{"bad bool", "ENABLE_MERMAID_CHARTS", "maybe"},
		{"bad size", "MAX_UPLOAD_BYTES", "ten"},
		{"bad tracing switch", "OTEL_ENABLED", "sometimes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Parse("")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "parse env:") {
				t.Errorf("expected parse env prefix, got %v", err)
			}
		})
	}
}

func TestGodotenvQuoting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := `REFERENCE_DIR='/tables with "quotes"'`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	expected := `/tables with "quotes"`
	if env["REFERENCE_DIR"] != expected {
		t.Errorf("Expected %s, got %s", expected, env["REFERENCE_DIR"])
	}
}
