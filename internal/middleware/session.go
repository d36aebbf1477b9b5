package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/inkwell-apps/daily-reflection/internal/model/reflection"
	sessionService "github.com/inkwell-apps/daily-reflection/internal/service/session"
	"github.com/inkwell-apps/daily-reflection/pkg/utils"
)

// CookieName identifies the browser-session cookie carrying the session ID.
const CookieName = "reflection_session"

type contextKey struct{}

var sessionContextKey contextKey

// Session resolves the caller's session from the cookie, creating one on
// first contact, and stashes it in the request context. Every request
// touches LastSeenAt so the idle TTL is a true idle timeout.
func Session(store sessionService.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, fresh, err := resolveSession(r, store)
			if err != nil {
				log.Printf("[session] failed to resolve session: %v", err)
				utils.RespondError(w, http.StatusInternalServerError, "session unavailable")
				return
			}

			if fresh {
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			sess.LastSeenAt = time.Now().UTC()
			if err := store.Update(r.Context(), sess); err != nil {
				log.Printf("[session] failed to touch session %s: %v", sess.ID, err)
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom extracts the session placed in the context by Session.
func SessionFrom(ctx context.Context) (reflection.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(reflection.Session)
	return sess, ok
}

func resolveSession(r *http.Request, store sessionService.Store) (reflection.Session, bool, error) {
	cookie, err := r.Cookie(CookieName)
	if err == nil && cookie.Value != "" {
		sess, err := store.Get(r.Context(), cookie.Value)
		if err == nil {
			return sess, false, nil
		}
		if !errors.Is(err, sessionService.ErrSessionNotFound) {
			return reflection.Session{}, false, err
		}
		// Expired or unknown cookie: fall through and start over.
	}

	sess, err := store.Create(r.Context())
	if err != nil {
		return reflection.Session{}, false, err
	}
	return sess, true, nil
}
