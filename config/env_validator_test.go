package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvValidator_ValidateRequired(t *testing.T) {
	complete := requiredEnv()
	without := func(name string) map[string]string {
		vars := make(map[string]string)
		for k, v := range complete {
			if k != name {
				vars[k] = v
			}
		}
		return vars
	}

	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{"complete", complete, ""},
		{"no token", without("BOT_TOKEN"), "missing required environment variables: [BOT_TOKEN]"},
		{"no api id", without("API_ID"), "missing required environment variables: [API_ID]"},
		{"no api hash", without("API_HASH"), "missing required environment variables: [API_HASH]"},
		{"blank token", map[string]string{"BOT_TOKEN": "  ", "API_ID": "1", "API_HASH": "h"}, "missing required environment variables: [BOT_TOKEN]"},
		{"empty", map[string]string{}, "missing required environment variables: [BOT_TOKEN API_ID API_HASH]"},
		{"api id not numeric", map[string]string{"BOT_TOKEN": "t", "API_ID": "twelve", "API_HASH": "h"}, "invalid API_ID"},
	}

	validator := NewEnvValidator()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			setEnv(t, test.vars)

			err := validator.ValidateRequired()
			if test.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.wantErr)
		})
	}
}

func TestEnvValidator_GetAPICredentials(t *testing.T) {
	validator := NewEnvValidator()

	setEnv(t, map[string]string{"API_ID": " 12345 ", "API_HASH": "abcdef"})
	id, hash, err := validator.GetAPICredentials()
	require.NoError(t, err)
	assert.Equal(t, 12345, id)
	assert.Equal(t, "abcdef", hash)

	setEnv(t, map[string]string{"API_HASH": "abcdef"})
	_, _, err = validator.GetAPICredentials()
	assert.EqualError(t, err, "API_ID environment variable is not set")

	setEnv(t, map[string]string{"API_ID": "12345"})
	_, _, err = validator.GetAPICredentials()
	assert.EqualError(t, err, "API_HASH environment variable is not set")

	setEnv(t, map[string]string{"API_ID": "0x10", "API_HASH": "abcdef"})
	_, _, err = validator.GetAPICredentials()
	assert.EqualError(t, err, "API_ID must be a valid integer, got: 0x10")
}

func TestEnvValidator_OptionalValues(t *testing.T) {
	validator := NewEnvValidator()

	t.Run("string fallback when blank", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("DOWNLOAD_DIR", "   ")
		if got := validator.GetString("DOWNLOAD_DIR", "downloads"); got != "downloads" {
			t.Errorf("expected fallback %q, got %q", "downloads", got)
		}
		os.Setenv("DOWNLOAD_DIR", "/tmp/media")
		if got := validator.GetString("DOWNLOAD_DIR", "downloads"); got != "/tmp/media" {
			t.Errorf("expected %q, got %q", "/tmp/media", got)
		}
	})

	t.Run("int parsing", func(t *testing.T) {
		os.Clearenv()
		if got, err := validator.GetInt("MAX_FILE_SIZE_MB", 50); err != nil || got != 50 {
			t.Errorf("expected default 50, got %d (err: %v)", got, err)
		}
		os.Setenv("MAX_FILE_SIZE_MB", "20")
		if got, err := validator.GetInt("MAX_FILE_SIZE_MB", 50); err != nil || got != 20 {
			t.Errorf("expected 20, got %d (err: %v)", got, err)
		}
		os.Setenv("MAX_FILE_SIZE_MB", "big")
		if _, err := validator.GetInt("MAX_FILE_SIZE_MB", 50); err == nil {
			t.Error("expected error for non-integer value")
		}
	})

	t.Run("bool parsing", func(t *testing.T) {
		cases := map[string]bool{"1": true, "true": true, "YES": true, "0": false, "false": false, "off": false}
		for value, expected := range cases {
			os.Clearenv()
			os.Setenv("YTDLP_AUTO_INSTALL", value)
			got, err := validator.GetBool("YTDLP_AUTO_INSTALL", !expected)
			if err != nil {
				t.Errorf("value %q: unexpected error %v", value, err)
				continue
			}
			if got != expected {
				t.Errorf("value %q: expected %v, got %v", value, expected, got)
			}
		}

		os.Setenv("YTDLP_AUTO_INSTALL", "maybe")
		if _, err := validator.GetBool("YTDLP_AUTO_INSTALL", false); err == nil {
			t.Error("expected error for invalid boolean")
		}
	})

	t.Run("duration parsing", func(t *testing.T) {
		os.Clearenv()
		if got, err := validator.GetDuration("PROGRESS_EDIT_INTERVAL", time.Second); err != nil || got != time.Second {
			t.Errorf("expected default 1s, got %v (err: %v)", got, err)
		}
		os.Setenv("PROGRESS_EDIT_INTERVAL", "1500ms")
		if got, err := validator.GetDuration("PROGRESS_EDIT_INTERVAL", time.Second); err != nil || got != 1500*time.Millisecond {
			t.Errorf("expected 1.5s, got %v (err: %v)", got, err)
		}
		os.Setenv("PROGRESS_EDIT_INTERVAL", "5")
		if _, err := validator.GetDuration("PROGRESS_EDIT_INTERVAL", time.Second); err == nil {
			t.Error("expected error for duration without unit")
		}
	})
}
