package syncsvc

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"mikronet/internal/routeros"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// HTTP exposes the pull-sync batches. Each endpoint runs one batch
// synchronously and returns its counters.
type HTTP struct {
	engine *Engine
}

func NewHTTP(engine *Engine) *HTTP { return &HTTP{engine: engine} }

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1/sync").Subrouter()
	api.HandleFunc("/hotspot-users/{deviceId}", h.pull(h.engine.PullHotspotUsers)).Methods(http.MethodPost)
	api.HandleFunc("/pppoe-users/{deviceId}", h.pull(h.engine.PullPppoeUsers)).Methods(http.MethodPost)
	api.HandleFunc("/hotspot-profiles/{deviceId}", h.pull(h.engine.PullHotspotProfiles)).Methods(http.MethodPost)
	api.HandleFunc("/pppoe-profiles/{deviceId}", h.pull(h.engine.PullPppoeProfiles)).Methods(http.MethodPost)
}

func (h *HTTP) pull(run func(uint) (Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		id, err := strconv.ParseUint(mux.Vars(r)["deviceId"], 10, 64)
		if err != nil || id == 0 {
			http.Error(w, "invalid device id", http.StatusBadRequest)
			return
		}
		res, err := run(uint(id))
		if err != nil {
			http.Error(w, err.Error(), pullStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}

func pullStatus(err error) int {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnsupportedDevice):
		return http.StatusBadRequest
	case errors.Is(err, routeros.ErrConnection):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
