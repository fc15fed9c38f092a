package handler

import (
	"encoding/json"
	"net/http"

	"parkhub/internal/zones/service"
	apperrors "parkhub/pkg/errors"
	httputil "parkhub/pkg/http"
	"parkhub/pkg/logger"
	"parkhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ZoneHandler struct {
	service      service.ZoneService
	availability service.AvailabilityService
	log          *logger.Logger
}

func NewZoneHandler(svc service.ZoneService, availability service.AvailabilityService, log *logger.Logger) *ZoneHandler {
	return &ZoneHandler{
		service:      svc,
		availability: availability,
		log:          log,
	}
}

func (h *ZoneHandler) CreateZone(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var zone model.ParkingZone
	if err := json.NewDecoder(r.Body).Decode(&zone); err != nil {
		h.writeBadBody(w, "CreateZone")
		return
	}

	if err := h.service.CreateZone(r.Context(), &zone); err != nil {
		h.writeError(w, "CreateZone", err)
		return
	}

	if err := httputil.WriteCreated(w, zone); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateZone", "error", err)
	}
}

func (h *ZoneHandler) GetZone(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	zone, err := h.service.GetZone(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetZone", err)
		return
	}

	if err := httputil.WriteSuccess(w, zone); err != nil {
		h.log.Error("failed to write success response", "handler", "GetZone", "error", err)
	}
}

func (h *ZoneHandler) GetAllZones(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAllZones", err)
		return
	}

	zones, total, err := h.service.GetAllZones(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAllZones", err)
		return
	}

	if err := httputil.WritePaginated(w, zones, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAllZones", "error", err)
	}
}

func (h *ZoneHandler) UpdateZone(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.ParkingZoneUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeBadBody(w, "UpdateZone")
		return
	}

	if err := h.service.UpdateZone(r.Context(), ps.ByName("id"), &updates); err != nil {
		h.writeError(w, "UpdateZone", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ZoneHandler) CreateSpot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var spot model.ParkingSpot
	if err := json.NewDecoder(r.Body).Decode(&spot); err != nil {
		h.writeBadBody(w, "CreateSpot")
		return
	}

	if err := h.service.CreateSpot(r.Context(), &spot); err != nil {
		h.writeError(w, "CreateSpot", err)
		return
	}

	if err := httputil.WriteCreated(w, spot); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateSpot", "error", err)
	}
}

func (h *ZoneHandler) GetSpot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	spot, err := h.service.GetSpot(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetSpot", err)
		return
	}

	if err := httputil.WriteSuccess(w, spot); err != nil {
		h.log.Error("failed to write success response", "handler", "GetSpot", "error", err)
	}
}

func (h *ZoneHandler) GetZoneSpots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	spots, err := h.service.GetSpotsByZone(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetZoneSpots", err)
		return
	}

	if err := httputil.WriteSuccess(w, spots); err != nil {
		h.log.Error("failed to write success response", "handler", "GetZoneSpots", "error", err)
	}
}

func (h *ZoneHandler) UpdateSpot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.ParkingSpotUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeBadBody(w, "UpdateSpot")
		return
	}

	if err := h.service.UpdateSpot(r.Context(), ps.ByName("id"), &updates); err != nil {
		h.writeError(w, "UpdateSpot", err)
		return
	}

	httputil.WriteNoContent(w)
}

// GetAvailability lists spots free for the requested half-open window.
func (h *ZoneHandler) GetAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	start, err := httputil.ExtractTime(r, "start_time")
	if err != nil {
		h.writeError(w, "GetAvailability", err)
		return
	}
	end, err := httputil.ExtractTime(r, "end_time")
	if err != nil {
		h.writeError(w, "GetAvailability", err)
		return
	}
	if start == nil || end == nil {
		h.writeError(w, "GetAvailability", apperrors.InvalidInput("start_time and end_time query parameters are required"))
		return
	}

	spots, err := h.availability.FindAvailableSpots(r.Context(), ps.ByName("id"), *start, *end)
	if err != nil {
		h.writeError(w, "GetAvailability", err)
		return
	}

	if err := httputil.WriteSuccess(w, spots); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAvailability", "error", err)
	}
}

func (h *ZoneHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "error", writeErr)
	}
}

func (h *ZoneHandler) writeBadBody(w http.ResponseWriter, handler string) {
	if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: "Invalid request body",
	}); writeErr != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "error", writeErr)
	}
}

func (h *ZoneHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/zones", h.CreateZone)
	router.GET("/api/v1/zones", h.GetAllZones)
	router.GET("/api/v1/zones/id/:id", h.GetZone)
	router.PATCH("/api/v1/zones/id/:id", h.UpdateZone)
	router.GET("/api/v1/zones/id/:id/spots", h.GetZoneSpots)
	router.GET("/api/v1/zones/id/:id/availability", h.GetAvailability)

	router.POST("/api/v1/spots", h.CreateSpot)
	router.GET("/api/v1/spots/id/:id", h.GetSpot)
	router.PATCH("/api/v1/spots/id/:id", h.UpdateSpot)
}
