package reflection

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-apps/daily-reflection/internal/middleware"
	reflectionModel "github.com/inkwell-apps/daily-reflection/internal/model/reflection"
	"github.com/inkwell-apps/daily-reflection/internal/reveal"
	poemService "github.com/inkwell-apps/daily-reflection/internal/service/poem"
	sessionService "github.com/inkwell-apps/daily-reflection/internal/service/session"
	"github.com/inkwell-apps/daily-reflection/pkg/utils"
)

// EmptyInputMessage is the informational prompt for a blank submission.
const EmptyInputMessage = "Please share a few words first."

// GenerationDisabledMessage is surfaced when the provider credential is
// missing.
const GenerationDisabledMessage = "OpenAI API Key not found. Please set it in a .env file or the secrets file."

// Handler exposes poem generation and the reveal stream.
type Handler struct {
	poems    *poemService.Service // nil when generation is disabled
	sessions sessionService.Store
	revealer *reveal.Revealer
}

// New creates the reflection handler.
func New(poems *poemService.Service, sessions sessionService.Store, revealer *reveal.Revealer) *Handler {
	return &Handler{
		poems:    poems,
		sessions: sessions,
		revealer: revealer,
	}
}

// RegisterRoutes mounts the reflection endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/reflections", h.handleCreate)
	r.Get("/reflections/{reflectionID}/reveal", h.handleReveal)
}

// handleCreate runs one synchronous generation for the submitted day
// description. Every failure leaves the session usable for a resubmit.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	if !sess.Authenticated {
		utils.RespondError(w, http.StatusUnauthorized, "password required")
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Guard before the generator is ever invoked: a blank submission is an
	// informational message, not an error, and costs no provider call.
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondInfo(w, http.StatusBadRequest, EmptyInputMessage)
		return
	}

	if h.poems == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, GenerationDisabledMessage)
		return
	}

	poem, err := h.poems.Generate(r.Context(), payload.Text)
	if err != nil {
		log.Printf("[reflection] generation failed for session=%s: %v", sess.ID, err)
		utils.RespondError(w, http.StatusBadGateway, "Error generating poem: "+err.Error())
		return
	}

	ref, err := h.sessions.SaveReflection(r.Context(), reflectionModel.Reflection{
		SessionID: sess.ID,
		Text:      poem.Text,
		Poet:      poem.Poet,
	})
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to store reflection")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, ref)
}

type streamEvent struct {
	Event    string `json:"event"`
	Content  string `json:"content,omitempty"`
	Finished bool   `json:"finished,omitempty"`
	Error    string `json:"error,omitempty"`
}

// handleReveal replays an already-generated poem over SSE, one rune per
// delta event, then the full text, the attribution line and an end event.
func (h *Handler) handleReveal(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	if !sess.Authenticated {
		utils.RespondError(w, http.StatusUnauthorized, "password required")
		return
	}

	reflectionID := chi.URLParam(r, "reflectionID")
	ref, err := h.sessions.GetReflection(r.Context(), sess.ID, reflectionID)
	if err != nil {
		if errors.Is(err, sessionService.ErrReflectionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "reflection not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to load reflection")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	ctx := r.Context()

	utils.SendSSEChunk(w, flusher, streamEvent{Event: "start"})

	err = h.revealer.Reveal(ctx, ref.Text, func(chunk string) error {
		utils.SendSSEChunk(w, flusher, streamEvent{Event: "delta", Content: chunk})
		return ctx.Err()
	})
	if err != nil {
		// Client went away mid-reveal; nothing left to write.
		log.Printf("[reveal] stream for reflection=%s interrupted: %v", ref.ID, err)
		return
	}

	utils.SendSSEChunk(w, flusher, streamEvent{Event: "message", Content: ref.Text})
	utils.SendSSEChunk(w, flusher, streamEvent{Event: "attribution", Content: "- " + ref.Poet})
	utils.SendSSEChunk(w, flusher, streamEvent{Event: "end", Finished: true})
}
