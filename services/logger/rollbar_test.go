package logsvc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/studiousvault/core"
	"github.com/trezcool/studiousvault/core/user"
)

func newObservedLogger(t *testing.T) (*RollbarLogger, *observer.ObservedLogs) {
	t.Helper()
	obsCore, logs := observer.New(zapcore.DebugLevel)
	logger := NewRollbarLogger(zap.New(obsCore), &core.Config{Env: "TEST"})
	logger.Enable(false)
	return logger, logs
}

func TestRollbarLogger_fields(t *testing.T) {
	logger, logs := newObservedLogger(t)

	usr := user.User{ID: "1", Name: "John Doe", Role: user.RoleStudent}
	logger.Info("user logged in", map[string]interface{}{"id": "1"}, usr)
	logger.Error("boom", errors.New("kaput"))
	logger.Warn("odd", 42)

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "user logged in", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "1", ctx["id"])
	assert.Equal(t, "1", ctx["user_id"])
	assert.Equal(t, user.RoleStudent, ctx["user_role"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "kaput", entries[1].ContextMap()["error"])

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.EqualValues(t, 42, entries[2].ContextMap()["extra"])
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger, _ := newObservedLogger(t)

	err := errors.New("kaput")
	args := logger.prepare("msg", []interface{}{err, user.User{ID: "1"}, user.User{ID: "2"}})
	assert.Equal(t, []interface{}{"msg", err}, args, "users are not forwarded as extras")
}

func TestNewZapLogger(t *testing.T) {
	for _, debug := range []bool{true, false} {
		log, err := NewZapLogger(&core.Config{Debug: debug, Env: "TEST"}, "api")
		require.NoError(t, err)
		assert.NotNil(t, log)
	}
}
