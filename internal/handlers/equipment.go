package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/JustinWhittecar/critslots/internal/db"
)

type EquipmentHandler struct {
	Catalog *db.Catalog
	Log     zerolog.Logger
}

// Names serves GET /api/equipment?q= for the add-equipment picker.
func (h *EquipmentHandler) Names(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.Log.Error().Err(err).Msg("equipment search")
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
