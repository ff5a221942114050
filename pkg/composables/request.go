package composables

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/villagepulse/villagepulse/modules/core/domain/entities/user"
	"github.com/villagepulse/villagepulse/pkg/constants"
)

var (
	ErrNoLogger    = errors.New("logger not found")
	ErrNoUserFound = errors.New("no user found in context")
)

type Params struct {
	IP            string
	UserAgent     string
	Authenticated bool
	Request       *http.Request
	Writer        http.ResponseWriter
}

// UseParams returns the request parameters from the context.
// If the parameters are not found, the second return value will be false.
func UseParams(ctx context.Context) (*Params, bool) {
	params, ok := ctx.Value(constants.ParamsKey).(*Params)
	return params, ok
}

// WithParams returns a new context with the request parameters.
func WithParams(ctx context.Context, params *Params) context.Context {
	return context.WithValue(ctx, constants.ParamsKey, params)
}

// UseLogger returns the request-scoped logger from the context.
func UseLogger(ctx context.Context) *logrus.Entry {
	logger := ctx.Value(constants.LoggerKey)
	if logger == nil {
		panic(ErrNoLogger)
	}
	return logger.(*logrus.Entry)
}

// UseLoggerOk is the non-panicking variant for paths that may run before the
// logging middleware.
func UseLoggerOk(ctx context.Context) (*logrus.Entry, bool) {
	logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry)
	return logger, ok
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, constants.UserKey, u)
}

func UseUser(ctx context.Context) (user.User, error) {
	u, ok := ctx.Value(constants.UserKey).(user.User)
	if !ok {
		return user.User{}, ErrNoUserFound
	}
	return u, nil
}

// WithSystemActor marks the context as a trusted internal caller. Only code
// that has already verified its caller (the secret-gated scheduled trigger,
// in-process workers) may set it; authorization guards let it through where
// anonymous requests are denied.
func WithSystemActor(ctx context.Context) context.Context {
	return context.WithValue(ctx, constants.SystemActorKey, true)
}

func IsSystemActor(ctx context.Context) bool {
	actor, ok := ctx.Value(constants.SystemActorKey).(bool)
	return ok && actor
}
