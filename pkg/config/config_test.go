package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error='%v'", err)
	}
	if !cfg.Oracle.Magic || !cfg.Oracle.Extension || !cfg.Oracle.Deep {
		t.Errorf("Default() got oracle='%+v', want all layers enabled", cfg.Oracle)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    *Config
		wantErr string
	}{
		{
			name: "empty",
			data: "",
			want: Default(),
		},
		{
			name: "partial",
			data: "log:\n  level: debug\n",
			want: &Config{
				Log:    LogConfig{Level: "debug", Format: "text"},
				Oracle: OracleConfig{Magic: true, Extension: true, Deep: true},
			},
		},
		{
			name: "full",
			data: `
log:
  level: warn
  format: json
oracle:
  magic: true
  extension: false
  deep: false
  extensions:
    .md: text/markdown
    .webmanifest: application/manifest+json
`,
			want: &Config{
				Log: LogConfig{Level: "warn", Format: "json"},
				Oracle: OracleConfig{
					Magic: true,
					Extensions: map[string]string{
						".md":          "text/markdown",
						".webmanifest": "application/manifest+json",
					},
				},
			},
		},
		{name: "invalid yaml", data: "log: [", wantErr: "failed to parse config file"},
		{name: "invalid level", data: "log:\n  level: loud\n", wantErr: "log.level"},
		{name: "empty level", data: "log:\n  level: ''\n", wantErr: "log.level is required"},
		{name: "invalid format", data: "log:\n  format: xml\n", wantErr: "log.format"},
		{name: "extension without dot", data: "oracle:\n  extensions:\n    md: text/markdown\n", wantErr: "must start with a dot"},
		{name: "extension with invalid type", data: "oracle:\n  extensions:\n    .md: markdown\n", wantErr: "is not a media type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.data))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Parse() got error='%v', want error containing '%v'", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error='%v'", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() got='%+v', want='%+v'", got, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte("log:\n  format: json\n"), 0o600)
	if err != nil {
		t.Fatalf("WriteFile() error='%v'", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error='%v'", err)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("LoadFile() got format='%v', want='json'", cfg.Log.Format)
	}

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("LoadFile() got error='%v', want a read error", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("unset", func(t *testing.T) {
		t.Setenv(EnvVar, "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error='%v'", err)
		}
		if !reflect.DeepEqual(cfg, Default()) {
			t.Errorf("Load() got='%+v', want the default configuration", cfg)
		}
	})

	t.Run("set", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		err := os.WriteFile(path, []byte("oracle:\n  deep: false\n"), 0o600)
		if err != nil {
			t.Fatalf("WriteFile() error='%v'", err)
		}
		t.Setenv(EnvVar, path)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error='%v'", err)
		}
		if cfg.Oracle.Deep {
			t.Errorf("Load() got deep=true, want=false")
		}
	})
}

func TestNewOracle(t *testing.T) {
	cfg := Default()
	cfg.Oracle.Deep = false
	cfg.Oracle.Extensions = map[string]string{".MD": "text/markdown"}

	o := cfg.NewOracle()
	if !o.Magic || !o.Extension || o.Deep {
		t.Errorf("NewOracle() got='%+v', want magic and extension only", o)
	}
	if o.Extensions[".md"] != "text/markdown" {
		t.Errorf("NewOracle() got extensions='%v', want lowercase keys", o.Extensions)
	}

	got, certain := o.Guess("/docs/README.md", []byte("# Title"))
	if got != "text/markdown" || certain {
		t.Errorf("Guess() got='%v' certain=%v, want='text/markdown' certain=false", got, certain)
	}

	if Default().NewOracle().Extensions != nil {
		t.Errorf("NewOracle() without extensions got a non-nil map")
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		cfg := Default()
		cfg.Log.Format = "json"
		out := &bytes.Buffer{}

		logger := cfg.NewLogger(out)
		logger.Debug("hidden")
		logger.Info("shown", "key", "value")

		var entry map[string]any
		if err := json.Unmarshal(out.Bytes(), &entry); err != nil {
			t.Fatalf("output is not a single JSON record: '%s'", out.String())
		}
		if entry["msg"] != "shown" || entry["key"] != "value" {
			t.Errorf("NewLogger() got record='%v'", entry)
		}
	})

	t.Run("text with debug", func(t *testing.T) {
		cfg := Default()
		cfg.Log.Level = "debug"
		out := &bytes.Buffer{}

		cfg.NewLogger(out).Debug("shown")
		if !strings.Contains(out.String(), "msg=shown") {
			t.Errorf("NewLogger() got output='%s', want a debug record", out.String())
		}
	})
}
