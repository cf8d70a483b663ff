package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"vehicle-accounting/gps/internal/ingest"
)

// GPSRequest is the device-facing body of POST /gps. Coordinates are
// pointers so that an absent field fails "required" instead of passing as
// zero.
type GPSRequest struct {
	VehicleID int64    `json:"vehicle_id" validate:"required,gt=0"`
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

// Ingestor is the ingest service as seen by the HTTP layer.
type Ingestor interface {
	Ingest(ctx context.Context, vehicleID int64, latitude, longitude float64) (ingest.Result, error)
}

type Handler struct {
	svc      Ingestor
	validate *validator.Validate
	log      zerolog.Logger
}

func NewHandler(svc Ingestor, log zerolog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
		log:      log,
	}
}

// ReceiveGPS accepts one reading per request. Malformed input is rejected
// before any cache mutation or publish; a publish failure fails the
// request so the device knows the reading was lost.
func (h *Handler) ReceiveGPS(w http.ResponseWriter, r *http.Request) {
	var req GPSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid GPS data: "+err.Error())
		return
	}

	res, err := h.svc.Ingest(r.Context(), req.VehicleID, *req.Latitude, *req.Longitude)
	if err != nil {
		h.log.Error().Err(err).Int64("vehicle_id", req.VehicleID).Msg("failed to ingest GPS reading")
		writeError(w, http.StatusBadGateway, "failed to publish GPS data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"message": "GPS data sent",
		"alert":   res.Alert,
	})
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": "GPS service running"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
