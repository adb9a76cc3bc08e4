package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/loadout/pkg/loadout/logging"
)

// TestInit exercises Init with various configurations.
// Note: no t.Parallel() anywhere here - these tests share global state.
func TestInit(t *testing.T) {
	validDir := t.TempDir()
	componentsDir := t.TempDir()
	invalidDir := t.TempDir()

	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr bool
	}{
		{
			name: "valid config with defaults",
			cfg: logging.Config{
				Level: "info",
				Path:  filepath.Join(validDir, "test.log"),
			},
			wantErr: false,
		},
		{
			name: "valid config with component overrides",
			cfg: logging.Config{
				Level: "info",
				Path:  filepath.Join(componentsDir, "components.log"),
				Components: map[string]string{
					"installer": "debug",
					"health":    "warn",
				},
			},
			wantErr: false,
		},
		{
			name: "invalid log level",
			cfg: logging.Config{
				Level: "invalid",
				Path:  filepath.Join(invalidDir, "invalid.log"),
			},
			wantErr: true,
		},
		{
			name: "invalid component level",
			cfg: logging.Config{
				Level:      "info",
				Path:       filepath.Join(invalidDir, "comp.log"),
				Components: map[string]string{"installer": "nope"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logging.Init(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Init() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil {
				if closeErr := logging.Close(); closeErr != nil {
					t.Errorf("Close() error = %v", closeErr)
				}
			}
		})
	}
}

func TestGet_BeforeInitIsSilent(t *testing.T) {
	logger := logging.Get("preinit")
	if logger == nil {
		t.Fatal("Get() returned nil before Init")
	}
	// Must not panic or write anywhere.
	logger.Info("discarded", "key", "value")
}

func TestLoggerWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "loadout.log")

	if err := logging.Init(logging.Config{Level: "debug", Path: logPath}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logger := logging.Get("installer")
	logger.Info("bundle copied", "files", 7)
	logger.Debug("detail line")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "bundle copied") {
		t.Errorf("log file missing info message: %q", content)
	}
	if !strings.Contains(content, "installer") {
		t.Errorf("log file missing component prefix: %q", content)
	}
	if !strings.Contains(content, "detail line") {
		t.Errorf("debug level should record debug messages: %q", content)
	}
}

func TestComponentLevelOverride(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "loadout.log")

	cfg := logging.Config{
		Level:      "error",
		Path:       logPath,
		Components: map[string]string{"health": "debug"},
	}
	if err := logging.Init(cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logging.Get("health").Debug("verbose health detail")
	logging.Get("installer").Info("suppressed at error level")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "verbose health detail") {
		t.Errorf("component override should allow debug output: %q", content)
	}
	if strings.Contains(content, "suppressed at error level") {
		t.Errorf("default level should suppress info output: %q", content)
	}
}

func TestWith_AttachesContext(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "loadout.log")

	if err := logging.Init(logging.Config{Level: "info", Path: logPath}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logging.Get("repair").With("root", "/tmp/x").Info("repair started")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "/tmp/x") {
		t.Errorf("With() context missing from output: %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]logging.Level{
		"debug":   logging.LevelDebug,
		"info":    logging.LevelInfo,
		"warn":    logging.LevelWarn,
		"warning": logging.LevelWarn,
		"error":   logging.LevelError,
		"ERROR":   logging.LevelError,
	}
	for in, want := range cases {
		got, err := logging.ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error = %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := logging.ParseLevel("nope"); err == nil {
		t.Error("ParseLevel should reject unknown levels")
	}
}

func TestClose_BeforeInitIsNoop(t *testing.T) {
	if err := logging.Close(); err != nil {
		t.Errorf("Close() before Init error = %v", err)
	}
}
