package core

import (
	"context"
	"errors"
)

// ErrNoValue is returned by LocalStorage.Get when the key holds nothing.
var ErrNoValue = errors.New("no value stored under key")

type (
	// Logger is any service that can log messages & errors.
	// expected args: error, map[string]interface{}, user.User (the logged in user)
	Logger interface {
		Debug(msg string, args ...interface{})
		Info(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
		Error(msg string, args ...interface{})
		Fatal(msg string, args ...interface{})
	}

	// LocalStorage is a small persistent key-value store that survives restarts.
	LocalStorage interface {
		Get(ctx context.Context, key string) ([]byte, error)
		Set(ctx context.Context, key string, value []byte) error
		Remove(ctx context.Context, key string) error
		Close() error
	}

	NoticeLevel string

	// Notice is a transient user-facing message (success or error).
	Notice struct {
		Level   NoticeLevel `json:"level"`
		Message string      `json:"message"`
	}

	// Notifier surfaces notices to the user.
	Notifier interface {
		Notify(n Notice)
		// Drain returns the pending notices and forgets them.
		Drain() []Notice
	}
)

// Notice levels
const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

func SuccessNotice(msg string) Notice { return Notice{Level: NoticeSuccess, Message: msg} }
func ErrorNotice(msg string) Notice   { return Notice{Level: NoticeError, Message: msg} }
