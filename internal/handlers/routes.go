package handlers

import "net/http"

// Register mounts the API on mux. equipment and hub may be nil.
func Register(mux *http.ServeMux, b *BuildsHandler, equipment *EquipmentHandler, hub *Hub) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/reservations", Reservations)

	// Builds
	mux.HandleFunc("POST /api/builds", b.Create)
	mux.HandleFunc("GET /api/builds/{id}", b.Get)
	mux.HandleFunc("DELETE /api/builds/{id}", b.Delete)
	mux.HandleFunc("POST /api/builds/{id}/equipment", b.AddEquipment)
	mux.HandleFunc("PUT /api/builds/{id}/equipment/{instanceId}", b.Place)
	mux.HandleFunc("DELETE /api/builds/{id}/equipment/{instanceId}/placement", b.Unplace)
	mux.HandleFunc("DELETE /api/builds/{id}/equipment/{instanceId}", b.Remove)
	mux.HandleFunc("PUT /api/builds/{id}/engine", b.SetEngine)
	mux.HandleFunc("PUT /api/builds/{id}/gyro", b.SetGyro)

	if equipment != nil {
		mux.HandleFunc("GET /api/equipment", equipment.Names)
	}
	if hub != nil {
		mux.HandleFunc("GET /ws", hub.Handle)
	}
}
