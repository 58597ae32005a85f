package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("YOJEUM_VAULT_PATH", "/tmp/test-vault")
	t.Setenv("YOJEUM_DB_PATH", "/tmp/test.db")
	t.Setenv("YOJEUM_TOKEN", "test_token")
}

func TestLoadConfig(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test-vault", cfg.VaultPath)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "test_token", cfg.Token)
}

func TestConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "Asia/Seoul", cfg.Timezone)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 22, cfg.LetterHour)
	assert.Equal(t, 7, cfg.LookbackDays)
	assert.Equal(t, 60, cfg.RateLimit)
	assert.False(t, cfg.SharingEnabled())
	assert.Equal(t, "Asia/Seoul", cfg.Location().String())
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("YOJEUM_PORT", "9090")
	t.Setenv("YOJEUM_LETTER_HOUR", "7")
	t.Setenv("YOJEUM_TELEGRAM_TOKEN", "bot")
	t.Setenv("YOJEUM_TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("YOJEUM_TELEGRAM_TEXT_ONLY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 7, cfg.LetterHour)
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
	assert.True(t, cfg.TelegramTextOnly)
	assert.True(t, cfg.SharingEnabled())
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing vault", map[string]string{"YOJEUM_VAULT_PATH": ""}},
		{"missing db", map[string]string{"YOJEUM_DB_PATH": ""}},
		{"missing token", map[string]string{"YOJEUM_TOKEN": ""}},
		{"bad timezone", map[string]string{"YOJEUM_TIMEZONE": "Mars/Olympus"}},
		{"bad hour", map[string]string{"YOJEUM_LETTER_HOUR": "24"}},
		{"non-numeric hour", map[string]string{"YOJEUM_LETTER_HOUR": "late"}},
		{"bad lookback", map[string]string{"YOJEUM_LOOKBACK_DAYS": "0"}},
		{"telegram without chat", map[string]string{"YOJEUM_TELEGRAM_TOKEN": "bot"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestActorFromToken(t *testing.T) {
	cfg := &Config{Token: "owner_secret"}

	tests := []struct {
		token     string
		wantActor string
		wantValid bool
	}{
		{"owner_secret", "owner", true},
		{"invalid", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		actor, valid := cfg.ActorFromToken(tc.token)
		assert.Equal(t, tc.wantActor, actor, "token %q", tc.token)
		assert.Equal(t, tc.wantValid, valid, "token %q", tc.token)
	}

	empty := &Config{}
	_, valid := empty.ActorFromToken("")
	assert.False(t, valid)
}

func TestLoadLocalSkipsToken(t *testing.T) {
	setRequired(t)
	t.Setenv("YOJEUM_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)

	cfg, err := LoadLocal()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)

	t.Setenv("YOJEUM_DB_PATH", "")
	_, err = LoadLocal()
	assert.Error(t, err)
}
