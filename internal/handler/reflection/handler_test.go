package reflection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	middlewarePkg "github.com/inkwell-apps/daily-reflection/internal/middleware"
	"github.com/inkwell-apps/daily-reflection/internal/model/poet"
	reflectionModel "github.com/inkwell-apps/daily-reflection/internal/model/reflection"
	"github.com/inkwell-apps/daily-reflection/internal/reveal"
	poemService "github.com/inkwell-apps/daily-reflection/internal/service/poem"
	sessionService "github.com/inkwell-apps/daily-reflection/internal/service/session"
)

type fakeChatModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (f *fakeChatModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

func (f *fakeChatModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fixedPicker struct{ index int }

func (p fixedPicker) Pick(int) int { return p.index }

type fixture struct {
	router *chi.Mux
	store  *sessionService.MemoryStore
	model  *fakeChatModel
}

func setup(t *testing.T, chatModel *fakeChatModel) fixture {
	t.Helper()
	store := sessionService.NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	var poems *poemService.Service
	if chatModel != nil {
		var err error
		poems, err = poemService.NewService(context.Background(), poet.NewMemoryStore(poet.Seed()), fixedPicker{index: 7}, chatModel, "")
		if err != nil {
			t.Fatalf("NewService err: %v", err)
		}
	}

	handler := New(poems, store, reveal.New(0))

	r := chi.NewRouter()
	r.Use(middlewarePkg.Session(store))
	handler.RegisterRoutes(r)
	return fixture{router: r, store: store, model: chatModel}
}

// authenticatedCookie provisions an unlocked session directly in the store.
func authenticatedCookie(t *testing.T, store *sessionService.MemoryStore) *http.Cookie {
	t.Helper()
	ctx := context.Background()
	sess, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	sess.Authenticated = true
	if err := store.Update(ctx, sess); err != nil {
		t.Fatalf("Update err: %v", err)
	}
	return &http.Cookie{Name: middlewarePkg.CookieName, Value: sess.ID}
}

func postReflection(t *testing.T, f fixture, text string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/reflections", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func TestCreateReflection(t *testing.T) {
	f := setup(t, &fakeChatModel{reply: "Rain taps soft / on quiet glass"})
	cookie := authenticatedCookie(t, f.store)

	resp := postReflection(t, f, "It rained all day and I stayed in.", cookie)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var ref reflectionModel.Reflection
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if ref.ID == "" {
		t.Fatal("expected a reflection ID")
	}
	if ref.Text != "Rain taps soft / on quiet glass" {
		t.Fatalf("unexpected text: %q", ref.Text)
	}
	if ref.Poet != "Robert Frost" {
		t.Fatalf("unexpected poet: %q", ref.Poet)
	}
}

func TestCreateReflectionRequiresUnlock(t *testing.T) {
	f := setup(t, &fakeChatModel{reply: "x"})

	resp := postReflection(t, f, "a locked-out day", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if f.model.callCount() != 0 {
		t.Fatal("the generator must never run for a locked session")
	}
}

func TestCreateReflectionEmptyInputGuard(t *testing.T) {
	f := setup(t, &fakeChatModel{reply: "x"})
	cookie := authenticatedCookie(t, f.store)

	for _, text := range []string{"", "   ", "\n\t "} {
		resp := postReflection(t, f, text, cookie)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("text %q: expected 400, got %d", text, resp.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["info"] != EmptyInputMessage {
			t.Fatalf("expected an informational payload, got %v", body)
		}
		if body["error"] != "" {
			t.Fatalf("empty input is not an error, got %v", body)
		}
	}

	if f.model.callCount() != 0 {
		t.Fatal("empty submissions must never reach the provider")
	}
}

func TestCreateReflectionGenerationDisabled(t *testing.T) {
	f := setup(t, nil)
	cookie := authenticatedCookie(t, f.store)

	resp := postReflection(t, f, "a fine day", cookie)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "OpenAI API Key not found") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestCreateReflectionProviderFailure(t *testing.T) {
	f := setup(t, &fakeChatModel{err: errors.New("upstream timeout")})
	cookie := authenticatedCookie(t, f.store)

	resp := postReflection(t, f, "a fine day", cookie)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "Error generating poem:") || !strings.Contains(body, "upstream timeout") {
		t.Fatalf("error must carry the underlying description, got %s", body)
	}

	// The session stays usable: a resubmit reaches the provider again.
	resp = postReflection(t, f, "trying again", cookie)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 on retry, got %d", resp.Code)
	}
	if f.model.callCount() != 2 {
		t.Fatalf("expected 2 provider calls, got %d", f.model.callCount())
	}
}

func TestRevealStreamsPoem(t *testing.T) {
	f := setup(t, &fakeChatModel{reply: "Rain taps soft / on quiet glass"})
	cookie := authenticatedCookie(t, f.store)

	created := postReflection(t, f, "It rained all day and I stayed in.", cookie)
	var ref reflectionModel.Reflection
	if err := json.NewDecoder(created.Body).Decode(&ref); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/reflections/"+ref.ID+"/reveal", nil)
	req.AddCookie(cookie)
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type: %s", ct)
	}

	events := parseSSE(t, resp.Body.String())
	if events[0].Event != "start" {
		t.Fatalf("expected a start event first, got %s", events[0].Event)
	}

	deltas := ""
	var sawMessage, sawAttribution, sawEnd bool
	for _, ev := range events {
		switch ev.Event {
		case "delta":
			if len([]rune(ev.Content)) != 1 {
				t.Fatalf("delta must carry a single rune, got %q", ev.Content)
			}
			deltas += ev.Content
		case "message":
			sawMessage = ev.Content == ref.Text
		case "attribution":
			sawAttribution = ev.Content == "- Robert Frost"
		case "end":
			sawEnd = ev.Finished
		}
	}

	if deltas != ref.Text {
		t.Fatalf("deltas do not reassemble the poem: %q", deltas)
	}
	if !sawMessage || !sawAttribution || !sawEnd {
		t.Fatalf("missing terminal events: message=%t attribution=%t end=%t", sawMessage, sawAttribution, sawEnd)
	}
}

func TestRevealUnknownReflection(t *testing.T) {
	f := setup(t, &fakeChatModel{reply: "x"})
	cookie := authenticatedCookie(t, f.store)

	req := httptest.NewRequest(http.MethodGet, "/reflections/missing/reveal", nil)
	req.AddCookie(cookie)
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestRevealRequiresUnlock(t *testing.T) {
	f := setup(t, &fakeChatModel{reply: "x"})

	req := httptest.NewRequest(http.MethodGet, "/reflections/whatever/reveal", nil)
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func parseSSE(t *testing.T, body string) []streamEvent {
	t.Helper()
	var events []streamEvent
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("bad sse line %q: %v", line, err)
		}
		events = append(events, ev)
	}
	if len(events) == 0 {
		t.Fatal("no sse events parsed")
	}
	return events
}
