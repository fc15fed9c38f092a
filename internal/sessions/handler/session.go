package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"parkhub/internal/sessions/service"
	httputil "parkhub/pkg/http"
	"parkhub/pkg/logger"
	"parkhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type SessionHandler struct {
	service service.SessionService
	log     *logger.Logger
}

func NewSessionHandler(service service.SessionService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		log:     log,
	}
}

type endSessionRequest struct {
	ExitTime *time.Time `json:"exit_time,omitempty"`
}

func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerID, err := httputil.CustomerID(r)
	if err != nil {
		h.writeError(w, "Open", err)
		return
	}

	var req model.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadBody(w, "Open")
		return
	}

	session, err := h.service.Open(r.Context(), customerID, &req)
	if err != nil {
		h.writeError(w, "Open", err)
		return
	}

	if err := httputil.WriteCreated(w, session); err != nil {
		h.log.Error("failed to write created response", "handler", "Open", "error", err)
	}
}

func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	customerID, err := httputil.CustomerID(r)
	if err != nil {
		h.writeError(w, "End", err)
		return
	}

	// The body is optional: an empty body ends the session now.
	var req endSessionRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeBadBody(w, "End")
			return
		}
	}

	settlement, err := h.service.End(r.Context(), customerID, ps.ByName("id"), req.ExitTime)
	if err != nil {
		h.writeError(w, "End", err)
		return
	}

	if err := httputil.WriteSuccess(w, settlement); err != nil {
		h.log.Error("failed to write success response", "handler", "End", "error", err)
	}
}

func (h *SessionHandler) EstimateCost(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	customerID, err := httputil.CustomerID(r)
	if err != nil {
		h.writeError(w, "EstimateCost", err)
		return
	}

	at, err := httputil.ExtractTime(r, "at")
	if err != nil {
		h.writeError(w, "EstimateCost", err)
		return
	}

	estimate, err := h.service.EstimateCost(r.Context(), customerID, ps.ByName("id"), at)
	if err != nil {
		h.writeError(w, "EstimateCost", err)
		return
	}

	if err := httputil.WriteSuccess(w, estimate); err != nil {
		h.log.Error("failed to write success response", "handler", "EstimateCost", "error", err)
	}
}

func (h *SessionHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	customerID, err := httputil.CustomerID(r)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	session, err := h.service.GetOwned(r.Context(), customerID, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, session); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *SessionHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerID, err := httputil.CustomerID(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	sessions, count, err := h.service.ListByCustomer(r.Context(), customerID, limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, sessions, count, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "error", err)
	}
}

func (h *SessionHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "error", writeErr)
	}
}

func (h *SessionHandler) writeBadBody(w http.ResponseWriter, handler string) {
	if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: "Invalid request body",
	}); writeErr != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "error", writeErr)
	}
}

func (h *SessionHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/sessions", h.Open)
	router.GET("/api/v1/sessions", h.ListMine)
	router.GET("/api/v1/sessions/id/:id", h.GetByID)
	router.POST("/api/v1/sessions/id/:id/end", h.End)
	router.GET("/api/v1/sessions/id/:id/cost", h.EstimateCost)
}
