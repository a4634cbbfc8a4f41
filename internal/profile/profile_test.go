package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProfileDefaults checks the defaults applied when no variables are set.
func TestProfileDefaults(t *testing.T) {
	clearEnvVars(t)

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"LLMProvider default", "openai", profile.LLMProvider},
		{"LLMBaseURL default", "https://api.openai.com/v1", profile.LLMBaseURL},
		{"LLMModel default", "gpt-4o-mini", profile.LLMModel},
		{"MemoryUpdatePolicy default", "always", profile.MemoryUpdatePolicy},
		{"IMAPAddr default", "imap.gmail.com:993", profile.IMAPAddr},
		{"SMTPAddr default", "smtp.gmail.com:587", profile.SMTPAddr},
		{"SePayBaseURL default", "https://my.sepay.vn/userapi", profile.SePayBaseURL},
		{"CalendarBackend default", "local", profile.CalendarBackend},
		{"CalendarTimezone default", "Asia/Ho_Chi_Minh", profile.CalendarTimezone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.actual)
		})
	}
	assert.Equal(t, 1024, profile.LLMMaxTokens)
	assert.InDelta(t, 0.2, profile.LLMTemperature, 0.0001)
	assert.False(t, profile.RequireUserID)
}

// TestProfileFromEnv checks that each variable is picked up.
func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) string
		expected string
	}{
		{
			name:     "provider switches base url",
			envVar:   "ORBITA_LLM_PROVIDER",
			envValue: "deepseek",
			field:    func(p *Profile) string { return p.LLMBaseURL },
			expected: "https://api.deepseek.com",
		},
		{
			name:     "explicit base url wins",
			envVar:   "ORBITA_LLM_BASE_URL",
			envValue: "https://proxy.local/v1",
			field:    func(p *Profile) string { return p.LLMBaseURL },
			expected: "https://proxy.local/v1",
		},
		{
			name:     "api key",
			envVar:   "ORBITA_LLM_API_KEY",
			envValue: "sk-test",
			field:    func(p *Profile) string { return p.LLMAPIKey },
			expected: "sk-test",
		},
		{
			name:     "update policy",
			envVar:   "ORBITA_MEMORY_UPDATE_POLICY",
			envValue: "keywords",
			field:    func(p *Profile) string { return p.MemoryUpdatePolicy },
			expected: "keywords",
		},
		{
			name:     "calendar timezone",
			envVar:   "ORBITA_CALENDAR_TIMEZONE",
			envValue: "Europe/Berlin",
			field:    func(p *Profile) string { return p.CalendarTimezone },
			expected: "Europe/Berlin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			t.Setenv(tt.envVar, tt.envValue)

			profile := &Profile{}
			profile.FromEnv()

			assert.Equal(t, tt.expected, tt.field(profile))
		})
	}
}

func TestProfileFromEnv_InvalidNumbersFallBack(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("ORBITA_LLM_MAX_TOKENS", "lots")
	t.Setenv("ORBITA_LLM_RPS", "fast")

	profile := &Profile{}
	profile.FromEnv()

	assert.Equal(t, 1024, profile.LLMMaxTokens)
	assert.InDelta(t, 2.0, profile.LLMRequestsPerSecond, 0.0001)
}

func TestIsLLMConfigured(t *testing.T) {
	assert.False(t, (&Profile{LLMProvider: "openai"}).IsLLMConfigured())
	assert.True(t, (&Profile{LLMProvider: "openai", LLMAPIKey: "k"}).IsLLMConfigured())
	assert.True(t, (&Profile{LLMProvider: "ollama"}).IsLLMConfigured())
}

func TestValidate(t *testing.T) {
	t.Run("sqlite dsn defaults into data dir", func(t *testing.T) {
		dir := t.TempDir()
		p := &Profile{Mode: "dev", Data: dir}
		require.NoError(t, p.Validate())

		assert.Equal(t, "sqlite", p.Driver)
		assert.Equal(t, filepath.Join(dir, "orbita_dev.db"), p.DSN)
		assert.Equal(t, "always", p.MemoryUpdatePolicy)
		assert.Equal(t, "local", p.CalendarBackend)
	})

	t.Run("unknown mode becomes demo", func(t *testing.T) {
		p := &Profile{Mode: "staging", Data: t.TempDir()}
		require.NoError(t, p.Validate())
		assert.Equal(t, "demo", p.Mode)
	})

	t.Run("creates missing data dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "data")
		p := &Profile{Mode: "dev", Data: dir}
		require.NoError(t, p.Validate())
		_, err := os.Stat(dir)
		assert.NoError(t, err)
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: t.TempDir(), Driver: "mysql"}
		assert.Error(t, p.Validate())
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: t.TempDir(), Driver: "postgres"}
		assert.Error(t, p.Validate())
	})

	t.Run("rejects unknown update policy", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: t.TempDir(), MemoryUpdatePolicy: "sometimes"}
		assert.Error(t, p.Validate())
	})
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, envVar := range []string{
		"ORBITA_LLM_PROVIDER",
		"ORBITA_LLM_API_KEY",
		"ORBITA_LLM_BASE_URL",
		"ORBITA_LLM_MODEL",
		"ORBITA_LLM_MAX_TOKENS",
		"ORBITA_LLM_TEMPERATURE",
		"ORBITA_LLM_RPS",
		"ORBITA_MEMORY_UPDATE_POLICY",
		"ORBITA_REQUIRE_USER_ID",
		"ORBITA_IMAP_ADDR",
		"ORBITA_SMTP_ADDR",
		"ORBITA_SEPAY_BASE_URL",
		"ORBITA_CALENDAR_BACKEND",
		"ORBITA_CALENDAR_TIMEZONE",
	} {
		// Setenv registers the restore; Unsetenv then clears it for this test.
		t.Setenv(envVar, "")
		os.Unsetenv(envVar)
	}
}
