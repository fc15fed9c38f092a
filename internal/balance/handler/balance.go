package handler

import (
	"encoding/json"
	"net/http"

	"parkhub/internal/balance/service"
	httputil "parkhub/pkg/http"
	"parkhub/pkg/logger"
	"parkhub/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"
)

type BalanceHandler struct {
	service  service.BalanceService
	currency string
	log      *logger.Logger
}

func NewBalanceHandler(service service.BalanceService, currency string, log *logger.Logger) *BalanceHandler {
	return &BalanceHandler{
		service:  service,
		currency: currency,
		log:      log,
	}
}

type topUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type balanceResponse struct {
	CustomerID string          `json:"customer_id"`
	Balance    decimal.Decimal `json:"balance"`
	Currency   string          `json:"currency"`
}

func (h *BalanceHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var customer model.Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		h.writeBadBody(w, "RegisterCustomer")
		return
	}

	if err := h.service.RegisterCustomer(r.Context(), &customer); err != nil {
		h.writeError(w, "RegisterCustomer", err)
		return
	}

	if err := httputil.WriteCreated(w, customer); err != nil {
		h.log.Error("failed to write created response", "handler", "RegisterCustomer", "error", err)
	}
}

func (h *BalanceHandler) GetMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerID, err := httputil.CustomerID(r)
	if err != nil {
		h.writeError(w, "GetMe", err)
		return
	}

	customer, err := h.service.GetCustomer(r.Context(), customerID)
	if err != nil {
		h.writeError(w, "GetMe", err)
		return
	}

	if err := httputil.WriteSuccess(w, customer); err != nil {
		h.log.Error("failed to write success response", "handler", "GetMe", "error", err)
	}
}

func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerID, err := httputil.CustomerID(r)
	if err != nil {
		h.writeError(w, "GetBalance", err)
		return
	}

	customer, err := h.service.GetCustomer(r.Context(), customerID)
	if err != nil {
		h.writeError(w, "GetBalance", err)
		return
	}

	if err := httputil.WriteSuccess(w, balanceResponse{
		CustomerID: customer.ID,
		Balance:    customer.Balance,
		Currency:   h.currency,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBalance", "error", err)
	}
}

func (h *BalanceHandler) TopUp(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerID, err := httputil.CustomerID(r)
	if err != nil {
		h.writeError(w, "TopUp", err)
		return
	}

	var req topUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadBody(w, "TopUp")
		return
	}

	txn, err := h.service.TopUp(r.Context(), customerID, req.Amount)
	if err != nil {
		h.writeError(w, "TopUp", err)
		return
	}

	if err := httputil.WriteSuccess(w, txn); err != nil {
		h.log.Error("failed to write success response", "handler", "TopUp", "error", err)
	}
}

func (h *BalanceHandler) ListTransactions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerID, err := httputil.CustomerID(r)
	if err != nil {
		h.writeError(w, "ListTransactions", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListTransactions", err)
		return
	}

	txns, count, err := h.service.ListTransactions(r.Context(), customerID, limit, offset)
	if err != nil {
		h.writeError(w, "ListTransactions", err)
		return
	}

	if err := httputil.WritePaginated(w, txns, count, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListTransactions", "error", err)
	}
}

func (h *BalanceHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "error", writeErr)
	}
}

func (h *BalanceHandler) writeBadBody(w http.ResponseWriter, handler string) {
	if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: "Invalid request body",
	}); writeErr != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "error", writeErr)
	}
}

func (h *BalanceHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/customers", h.RegisterCustomer)
	router.GET("/api/v1/customers/me", h.GetMe)
	router.GET("/api/v1/balance", h.GetBalance)
	router.POST("/api/v1/balance/topup", h.TopUp)
	router.GET("/api/v1/balance/transactions", h.ListTransactions)
}
