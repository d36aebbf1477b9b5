package gate

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	middlewarePkg "github.com/inkwell-apps/daily-reflection/internal/middleware"
	gateService "github.com/inkwell-apps/daily-reflection/internal/service/gate"
	sessionService "github.com/inkwell-apps/daily-reflection/internal/service/session"
)

func setupRouter(t *testing.T, password string) *chi.Mux {
	t.Helper()
	store := sessionService.NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	handler := New(gateService.NewService(password), store, true)

	r := chi.NewRouter()
	r.Use(middlewarePkg.Session(store))
	handler.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeState(t *testing.T, resp *httptest.ResponseRecorder) stateResponse {
	t.Helper()
	var state stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return state
}

func TestSessionBootstrapLocked(t *testing.T) {
	r := setupRouter(t, "open-sesame")

	resp := doJSON(t, r, http.MethodGet, "/session", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	state := decodeState(t, resp)
	if state.State != gateService.StateLocked {
		t.Fatalf("expected locked, got %s", state.State)
	}
	if state.Incorrect {
		t.Fatal("incorrect flag must be clear before any submit")
	}
}

func TestUnlockWithCorrectPassword(t *testing.T) {
	r := setupRouter(t, "open-sesame")

	boot := doJSON(t, r, http.MethodGet, "/session", nil, nil)
	cookies := boot.Result().Cookies()

	resp := doJSON(t, r, http.MethodPost, "/session/unlock", map[string]string{"password": "open-sesame"}, cookies)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if state := decodeState(t, resp); state.State != gateService.StateUnlocked {
		t.Fatalf("expected unlocked, got %s", state.State)
	}

	// The unlock persists across subsequent renders without re-prompting.
	resp = doJSON(t, r, http.MethodGet, "/session", nil, cookies)
	if state := decodeState(t, resp); state.State != gateService.StateUnlocked {
		t.Fatalf("expected unlocked to persist, got %s", state.State)
	}
}

func TestUnlockWithWrongPassword(t *testing.T) {
	r := setupRouter(t, "open-sesame")

	boot := doJSON(t, r, http.MethodGet, "/session", nil, nil)
	cookies := boot.Result().Cookies()

	resp := doJSON(t, r, http.MethodPost, "/session/unlock", map[string]string{"password": "guess"}, cookies)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	state := decodeState(t, resp)
	if state.State != gateService.StateLocked || !state.Incorrect {
		t.Fatalf("expected locked+incorrect, got %+v", state)
	}
	if state.Error != IncorrectMessage {
		t.Fatalf("unexpected error message: %q", state.Error)
	}

	// Re-renders keep showing the inline error until the next submit.
	resp = doJSON(t, r, http.MethodGet, "/session", nil, cookies)
	if state := decodeState(t, resp); !state.Incorrect {
		t.Fatal("incorrect flag should persist across renders")
	}

	// Retry is always available: the right password still unlocks.
	resp = doJSON(t, r, http.MethodPost, "/session/unlock", map[string]string{"password": "open-sesame"}, cookies)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 after retry, got %d", resp.Code)
	}
}

func TestUnlockMisconfigured(t *testing.T) {
	r := setupRouter(t, "")

	boot := doJSON(t, r, http.MethodGet, "/session", nil, nil)
	if state := decodeState(t, boot); state.State != gateService.StateMisconfigured {
		t.Fatalf("expected misconfigured on bootstrap, got %s", state.State)
	}

	resp := doJSON(t, r, http.MethodPost, "/session/unlock", map[string]string{"password": "anything"}, boot.Result().Cookies())
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	state := decodeState(t, resp)
	if state.State != gateService.StateMisconfigured {
		t.Fatalf("expected misconfigured, got %s", state.State)
	}
	if state.Error != MisconfiguredMessage {
		t.Fatalf("unexpected error message: %q", state.Error)
	}
}

func TestUnlockInvalidBody(t *testing.T) {
	r := setupRouter(t, "open-sesame")

	req := httptest.NewRequest(http.MethodPost, "/session/unlock", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
