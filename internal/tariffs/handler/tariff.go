package handler

import (
	"encoding/json"
	"net/http"

	"parkhub/internal/tariffs/service"
	httputil "parkhub/pkg/http"
	"parkhub/pkg/logger"
	"parkhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type TariffHandler struct {
	service service.TariffService
	log     *logger.Logger
}

func NewTariffHandler(service service.TariffService, log *logger.Logger) *TariffHandler {
	return &TariffHandler{
		service: service,
		log:     log,
	}
}

func (h *TariffHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var tariff model.TariffPlan
	if err := json.NewDecoder(r.Body).Decode(&tariff); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &tariff); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, tariff); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *TariffHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tariff, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, tariff); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *TariffHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "error", writeErr)
		}
		return
	}

	tariffs, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, tariffs, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

func (h *TariffHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.TariffPlanUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "error", writeErr)
		}
		return
	}

	if err := h.service.Update(r.Context(), ps.ByName("id"), &updates); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *TariffHandler) Deactivate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Deactivate(r.Context(), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Deactivate", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *TariffHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/tariffs", h.Create)
	router.GET("/api/v1/tariffs", h.GetAll)
	router.GET("/api/v1/tariffs/id/:id", h.GetByID)
	router.PATCH("/api/v1/tariffs/id/:id", h.Update)
	router.DELETE("/api/v1/tariffs/id/:id", h.Deactivate)
}
