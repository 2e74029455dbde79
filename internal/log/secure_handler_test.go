package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// TestSecureHandler_SanitizesSensitiveKeys tests that secret-bearing keys are masked.
func TestSecureHandler_SanitizesSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{name: "password key is masked", key: "password", value: "hunter2", wantMask: true},
		{name: "Password key (mixed case) is masked", key: "Password", value: "hunter2", wantMask: true},
		{name: "candidate key is masked", key: "candidate", value: "qwerty123", wantMask: true},
		{name: "key containing candidate is masked", key: "last_candidate", value: "letmein", wantMask: true},
		{name: "found key is masked", key: "found", value: "Summer2024!", wantMask: true},
		{name: "passphrase key is masked", key: "passphrase", value: "correct horse", wantMask: true},
		{name: "archive key is NOT masked", key: "archive", value: "/tmp/a.zip", wantMask: false},
		{name: "mode key is NOT masked", key: "mode", value: "keyboard", wantMask: false},
		{name: "session id is NOT masked", key: "session", value: "5d41402abc4b2a76b9719d911017c592", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)
			logger.Info("test message", tt.key, tt.value)

			output := buf.String()
			if tt.wantMask {
				if strings.Contains(output, tt.value) {
					t.Errorf("expected value %q to be masked, got: %s", tt.value, output)
				}
				if !strings.Contains(output, MaskValue) {
					t.Errorf("expected mask value in output, got: %s", output)
				}
				return
			}
			if !strings.Contains(output, tt.value) {
				t.Errorf("expected value %q in output, got: %s", tt.value, output)
			}
		})
	}
}

// TestSecureHandler_KeepsCounts tests that numeric values under sensitive keys survive.
func TestSecureHandler_KeepsCounts(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true)
	logger.Info("mode finished", "candidates", 1500)

	if !strings.Contains(buf.String(), "candidates=1500") {
		t.Errorf("expected candidate count in output, got: %s", buf.String())
	}
}

// TestSecureHandler_SanitizesSensitiveValues tests value-pattern masking.
func TestSecureHandler_SanitizesSensitiveValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		secret   string
		wantMask bool
	}{
		{name: "7z password switch", value: "-psecret", secret: "secret", wantMask: true},
		{name: "long password option", value: "--password=secret", secret: "secret", wantMask: true},
		{name: "joined command line", value: "7z t -psecret -y a.zip", secret: "secret", wantMask: true},
		{name: "plain path", value: "/home/user/a.zip", secret: "a.zip", wantMask: false},
		{name: "plain flag", value: "-y", secret: "-y", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)
			logger.Info("oracle", "cmd", tt.value)

			output := buf.String()
			if tt.wantMask && strings.Contains(output, tt.secret) {
				t.Errorf("expected %q to be masked, got: %s", tt.secret, output)
			}
			if !tt.wantMask && !strings.Contains(output, tt.secret) {
				t.Errorf("expected %q in output, got: %s", tt.secret, output)
			}
		})
	}
}

// TestMaskArgs tests masking of oracle argument vectors.
func TestMaskArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "7z embedded password",
			args: []string{"7z", "t", "-psecret", "-y", "a.zip"},
			want: []string{"7z", "t", "-p" + MaskValue, "-y", "a.zip"},
		},
		{
			name: "unzip separate password",
			args: []string{"unzip", "-t", "-P", "secret", "a.zip"},
			want: []string{"unzip", "-t", "-P", MaskValue, "a.zip"},
		},
		{
			name: "long option",
			args: []string{"tool", "--password=secret", "a.zip"},
			want: []string{"tool", "--password=" + MaskValue, "a.zip"},
		},
		{
			name: "nothing to mask",
			args: []string{"ls", "-l"},
			want: []string{"ls", "-l"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := MaskArgs(tt.args)
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("MaskArgs(%v) = %v, want %v", tt.args, got, tt.want)
			}
			if tt.name == "7z embedded password" && tt.args[2] != "-psecret" {
				t.Error("MaskArgs must not modify its input")
			}
		})
	}
}

// TestSecureHandler_SanitizesArgSlices tests that []string attributes are masked element-wise.
func TestSecureHandler_SanitizesArgSlices(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true)
	logger.Info("oracle started", "argv", []string{"7z", "t", "-phunter2", "a.zip"})

	output := buf.String()
	if strings.Contains(output, "hunter2") {
		t.Errorf("expected password to be masked, got: %s", output)
	}
	if !strings.Contains(output, "a.zip") {
		t.Errorf("expected archive name to survive, got: %s", output)
	}
}

// TestSecureHandler_LogLevels tests that verbose selects the level.
func TestSecureHandler_LogLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		verbose   bool
		logFunc   func(*slog.Logger)
		wantEmpty bool
	}{
		{name: "debug hidden when not verbose", verbose: false, logFunc: func(l *slog.Logger) { l.Debug("debug") }, wantEmpty: true},
		{name: "info hidden when not verbose", verbose: false, logFunc: func(l *slog.Logger) { l.Info("info") }, wantEmpty: true},
		{name: "warn shown when not verbose", verbose: false, logFunc: func(l *slog.Logger) { l.Warn("warn") }, wantEmpty: false},
		{name: "debug shown when verbose", verbose: true, logFunc: func(l *slog.Logger) { l.Debug("debug") }, wantEmpty: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tt.logFunc(NewSecureLogger(&buf, tt.verbose))

			if (buf.Len() == 0) != tt.wantEmpty {
				t.Errorf("wantEmpty=%v, got output %q", tt.wantEmpty, buf.String())
			}
		})
	}
}

// TestSecureHandler_WithAttrs tests masking of pre-bound attributes.
func TestSecureHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true).With("password", "hunter2", "run", "r-1")
	logger.Info("started")

	output := buf.String()
	if strings.Contains(output, "hunter2") {
		t.Errorf("expected bound password to be masked, got: %s", output)
	}
	if !strings.Contains(output, "r-1") {
		t.Errorf("expected run id in output, got: %s", output)
	}
}

// TestSecureHandler_WithGroup tests masking inside groups.
func TestSecureHandler_WithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true)
	logger.Info("result", slog.Group("match", slog.String("password", "hunter2"), slog.String("mode", "date")))

	output := buf.String()
	if strings.Contains(output, "hunter2") {
		t.Errorf("expected grouped password to be masked, got: %s", output)
	}
	if !strings.Contains(output, "match.mode=date") {
		t.Errorf("expected grouped mode in output, got: %s", output)
	}
}

// TestNewSecureJSONLogger tests JSON logger creation.
func TestNewSecureJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureJSONLogger(&buf, true)
	logger.Info("found", "password", "hunter2")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["password"] != MaskValue {
		t.Errorf("expected masked password, got %v", entry["password"])
	}
}

// TestNewSecureHandler_NilHandler tests that a nil handler falls back to the default.
func TestNewSecureHandler_NilHandler(t *testing.T) {
	t.Parallel()

	handler := NewSecureHandler(nil)
	if handler.handler == nil {
		t.Error("expected fallback handler")
	}
}
