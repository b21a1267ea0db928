package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/JustinWhittecar/critslots/internal/builds"
	"github.com/JustinWhittecar/critslots/internal/critslots"
	"github.com/JustinWhittecar/critslots/internal/models"
)

type BuildsHandler struct {
	Service *builds.Service
	Log     zerolog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto status codes.
func (h *BuildsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, builds.ErrBuildNotFound), errors.Is(err, builds.ErrInstanceNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, builds.ErrSlotCountMismatch),
		errors.Is(err, builds.ErrInvalidLocation),
		errors.Is(err, builds.ErrSlotOutOfRange),
		errors.Is(err, builds.ErrUnknownEquipment):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, builds.ErrNotRemovable):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.Log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		http.Error(w, "Database error", http.StatusInternalServerError)
	}
}

func (h *BuildsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		EngineType string `json:"engine_type"`
		GyroType   string `json:"gyro_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	b, err := h.Service.Create(r.Context(), req.Name, req.EngineType, req.GyroType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BuildsHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	unallocated := b.Unallocated()
	if unallocated == nil {
		unallocated = []models.EquipmentInstance{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"build":        b,
		"unallocated":  unallocated,
		"reservations": critslots.ComputeReservations(critslots.EngineType(b.EngineType), critslots.GyroType(b.GyroType)),
	})
}

func (h *BuildsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BuildsHandler) AddEquipment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	inst, err := h.Service.AddEquipment(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

func (h *BuildsHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Location string `json:"location"`
		Slots    []int  `json:"slots"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	loc, ok := critslots.ParseLocation(req.Location)
	if !ok {
		http.Error(w, "Invalid location", http.StatusBadRequest)
		return
	}
	b, err := h.Service.Place(r.Context(), r.PathValue("id"), r.PathValue("instanceId"), loc, req.Slots)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BuildsHandler) Unplace(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.Unplace(r.Context(), r.PathValue("id"), r.PathValue("instanceId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BuildsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.Remove(r.Context(), r.PathValue("id"), r.PathValue("instanceId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BuildsHandler) SetEngine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EngineType string `json:"engine_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EngineType == "" {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	report, err := h.Service.SetEngine(r.Context(), r.PathValue("id"), req.EngineType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *BuildsHandler) SetGyro(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GyroType string `json:"gyro_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GyroType == "" {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	report, err := h.Service.SetGyro(r.Context(), r.PathValue("id"), req.GyroType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
