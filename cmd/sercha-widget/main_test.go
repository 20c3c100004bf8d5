package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-widget/internal/config"
	"github.com/custodia-labs/sercha-widget/internal/core/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		tokenAdmin = false
		tokenSubject = ""
		serveMode = modeAll
		configPath = ""
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SERCHA_DATABASE_URL", "postgres://localhost/widget")
	t.Setenv("SERCHA_AUTH_JWT_SECRET", testSecret)
	t.Setenv("SERCHA_LOG_LEVEL", "error")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, config.LogConfig{Level: "info", Format: "json"})
		logger.Info("hello", "tenant_id", "t1")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "t1", entry["tenant_id"])
		assert.Equal(t, "sercha-widget", entry["service"])
	})

	t.Run("text respects level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, config.LogConfig{Level: "warn", Format: "text"})
		logger.Info("hidden")
		logger.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=shown")
	})
}

func TestCommandTree(t *testing.T) {
	want := []string{"serve", "reindex", "teardown", "migrate", "token"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestServe_RejectsUnknownMode(t *testing.T) {
	_, err := execute(t, "serve", "--mode", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestReindex_RequiresTenant(t *testing.T) {
	_, err := execute(t, "reindex")
	assert.Error(t, err)
}

func TestToken_Tenant(t *testing.T) {
	setTestEnv(t)

	out, err := execute(t, "token", "t1")
	require.NoError(t, err)

	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	cfg, err := config.Load("")
	require.NoError(t, err)
	authCtx, err := newAuthService(cfg).ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "t1", authCtx.TenantID)
	assert.Equal(t, domain.RoleTenant, authCtx.Role)
}

func TestToken_Admin(t *testing.T) {
	setTestEnv(t)

	out, err := execute(t, "token", "--admin")
	require.NoError(t, err)

	cfg, err := config.Load("")
	require.NoError(t, err)
	authCtx, err := newAuthService(cfg).ValidateToken(context.Background(), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.True(t, authCtx.IsAdmin())
	assert.Equal(t, "operator", authCtx.Subject)
}

func TestToken_TenantRequired(t *testing.T) {
	setTestEnv(t)

	_, err := execute(t, "token")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestToken_InvalidConfig(t *testing.T) {
	t.Setenv("SERCHA_DATABASE_URL", "")
	t.Setenv("SERCHA_AUTH_JWT_SECRET", "")

	_, err := execute(t, "token", "t1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}
