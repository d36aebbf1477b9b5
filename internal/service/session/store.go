package session

import (
	"context"
	"errors"

	"github.com/inkwell-apps/daily-reflection/internal/model/reflection"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrReflectionNotFound = errors.New("reflection not found")
)

// Store keeps per-client session state and the reflections generated within
// it. Sessions are ephemeral: both backends expire them after the idle TTL
// and evict their reflections with them.
type Store interface {
	Create(ctx context.Context) (reflection.Session, error)
	Get(ctx context.Context, sessionID string) (reflection.Session, error)
	Update(ctx context.Context, sess reflection.Session) error
	SaveReflection(ctx context.Context, ref reflection.Reflection) (reflection.Reflection, error)
	GetReflection(ctx context.Context, sessionID, reflectionID string) (reflection.Reflection, error)
	Close() error
}
