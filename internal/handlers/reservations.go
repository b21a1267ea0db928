package handlers

import (
	"net/http"

	"github.com/JustinWhittecar/critslots/internal/critslots"
	"github.com/JustinWhittecar/critslots/internal/models"
)

type locationLayout struct {
	Location models.Location   `json:"location"`
	Name     string            `json:"name"`
	Capacity int               `json:"capacity"`
	Reserved []critslots.Range `json:"reserved"`
	Free     []int             `json:"free"`
}

// Reservations serves GET /api/reservations?engine=&gyro=. Unknown or empty
// values fall back to the standard engine and gyro.
func Reservations(w http.ResponseWriter, r *http.Request) {
	engine := critslots.ParseEngineType(r.URL.Query().Get("engine"))
	gyro := critslots.ParseGyroType(r.URL.Query().Get("gyro"))
	m := critslots.ComputeReservations(engine, gyro)

	layout := make([]locationLayout, 0, len(models.Locations()))
	for _, loc := range models.Locations() {
		reserved := m[loc]
		if reserved == nil {
			reserved = []critslots.Range{}
		}
		layout = append(layout, locationLayout{
			Location: loc,
			Name:     loc.Name(),
			Capacity: critslots.Capacity(loc),
			Reserved: reserved,
			Free:     critslots.FreeSlots(m, loc),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"engine_type": engine,
		"gyro_type":   gyro,
		"locations":   layout,
	})
}
