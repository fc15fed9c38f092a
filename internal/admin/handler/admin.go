package handler

import (
	"net/http"

	"parkhub/internal/admin/service"
	httputil "parkhub/pkg/http"
	"parkhub/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type AdminHandler struct {
	service service.AdminService
	log     *logger.Logger
}

func NewAdminHandler(service service.AdminService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		log:     log,
	}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	adminID, err := httputil.CustomerID(r)
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	overview, err := h.service.Stats(r.Context(), adminID)
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	if err := httputil.WriteSuccess(w, overview); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "error", err)
	}
}

func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	adminID, err := httputil.CustomerID(r)
	if err != nil {
		h.writeError(w, "ListBookings", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListBookings", err)
		return
	}

	bookings, count, err := h.service.ListBookings(r.Context(), adminID, limit, offset)
	if err != nil {
		h.writeError(w, "ListBookings", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, count, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListBookings", "error", err)
	}
}

func (h *AdminHandler) ListSessions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	adminID, err := httputil.CustomerID(r)
	if err != nil {
		h.writeError(w, "ListSessions", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListSessions", err)
		return
	}

	sessions, count, err := h.service.ListSessions(r.Context(), adminID, limit, offset)
	if err != nil {
		h.writeError(w, "ListSessions", err)
		return
	}

	if err := httputil.WritePaginated(w, sessions, count, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListSessions", "error", err)
	}
}

func (h *AdminHandler) ListPayments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	adminID, err := httputil.CustomerID(r)
	if err != nil {
		h.writeError(w, "ListPayments", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListPayments", err)
		return
	}

	payments, count, err := h.service.ListPayments(r.Context(), adminID, limit, offset)
	if err != nil {
		h.writeError(w, "ListPayments", err)
		return
	}

	if err := httputil.WritePaginated(w, payments, count, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListPayments", "error", err)
	}
}

func (h *AdminHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "error", writeErr)
	}
}

func (h *AdminHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/admin/stats", h.Stats)
	router.GET("/api/v1/admin/bookings", h.ListBookings)
	router.GET("/api/v1/admin/sessions", h.ListSessions)
	router.GET("/api/v1/admin/payments", h.ListPayments)
}
