package handler

import (
	"net/http"

	"parkhub/internal/payments/service"
	httputil "parkhub/pkg/http"
	"parkhub/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

func (h *PaymentHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	customerID, err := httputil.CustomerID(r)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	payment, err := h.service.GetOwned(r.Context(), customerID, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, payment); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *PaymentHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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

	payments, count, err := h.service.ListByCustomer(r.Context(), customerID, limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, payments, count, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "error", err)
	}
}

func (h *PaymentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "error", writeErr)
	}
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/payments", h.ListMine)
	router.GET("/api/v1/payments/id/:id", h.GetByID)
}
