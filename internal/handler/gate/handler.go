package gate

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-apps/daily-reflection/internal/middleware"
	gateService "github.com/inkwell-apps/daily-reflection/internal/service/gate"
	sessionService "github.com/inkwell-apps/daily-reflection/internal/service/session"
	"github.com/inkwell-apps/daily-reflection/pkg/utils"
)

// MisconfiguredMessage is surfaced whenever the shared password is unset.
const MisconfiguredMessage = "App is password protected but APP_PASSWORD is not set."

// IncorrectMessage is the inline error for a failed unlock attempt.
const IncorrectMessage = "Password incorrect"

// Handler exposes the session bootstrap and unlock endpoints.
type Handler struct {
	gate                *gateService.Service
	sessions            sessionService.Store
	generationAvailable bool
}

// New creates the gate handler. generationAvailable reports whether the
// provider credential was configured, so the page can warn up front.
func New(gate *gateService.Service, sessions sessionService.Store, generationAvailable bool) *Handler {
	return &Handler{
		gate:                gate,
		sessions:            sessions,
		generationAvailable: generationAvailable,
	}
}

// RegisterRoutes mounts the gate endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session", h.handleSession)
	r.Post("/session/unlock", h.handleUnlock)
}

type stateResponse struct {
	State               gateService.State `json:"state"`
	Incorrect           bool              `json:"incorrect"`
	GenerationAvailable bool              `json:"generationAvailable"`
	Error               string            `json:"error,omitempty"`
}

// handleSession reports the gate state without moving it. The session cookie
// is issued by the middleware on the way in.
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	result := h.gate.Query(sess)
	utils.RespondJSON(w, http.StatusOK, h.stateResponse(result))
}

// handleUnlock is the single submit event of the gate state machine.
func (h *Handler) handleUnlock(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	var payload struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := h.gate.Submit(&sess, payload.Password)

	if err := h.sessions.Update(r.Context(), sess); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to persist session")
		return
	}

	switch result.State {
	case gateService.StateMisconfigured:
		resp := h.stateResponse(result)
		resp.Error = MisconfiguredMessage
		utils.RespondJSON(w, http.StatusServiceUnavailable, resp)
	case gateService.StateUnlocked:
		utils.RespondJSON(w, http.StatusOK, h.stateResponse(result))
	default:
		resp := h.stateResponse(result)
		resp.Error = IncorrectMessage
		utils.RespondJSON(w, http.StatusUnauthorized, resp)
	}
}

func (h *Handler) stateResponse(result gateService.Result) stateResponse {
	return stateResponse{
		State:               result.State,
		Incorrect:           result.Incorrect,
		GenerationAvailable: h.generationAvailable,
	}
}
