// Package state carries the compiler's shared, request-scoped state through
// a context.Context, in the manner of fbc's state package.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sasse/config"
	"sasse/extend"
)

type envKey struct{}

// LocalEnv holds everything one compile pass needs.
type LocalEnv struct {
	Cfg *config.Options
	Log *zap.Logger
	Ext *extend.Extender

	start time.Time
}

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

// ContextWithEnv attaches a fresh LocalEnv to ctx.
func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

// EnvFromContext retrieves the LocalEnv attached by ContextWithEnv.
func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	panic("sasse: LocalEnv not found in context")
}

func (e *LocalEnv) Uptime() time.Duration { return time.Since(e.start) }
