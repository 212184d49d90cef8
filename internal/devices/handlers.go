package devices

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mikronet/internal/models"
	"mikronet/internal/syncsvc"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type HTTP struct {
	repo   *Repo
	engine *syncsvc.Engine
}

func NewHTTP(repo *Repo, engine *syncsvc.Engine) *HTTP {
	return &HTTP{repo: repo, engine: engine}
}

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1/devices").Subrouter()

	api.HandleFunc("", h.list).Methods(http.MethodGet)
	api.HandleFunc("", h.create).Methods(http.MethodPost)
	api.HandleFunc("/{id}", h.update).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/{id}", h.remove).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/sync", h.sync).Methods(http.MethodPost)
	api.HandleFunc("/{id}/test", h.test).Methods(http.MethodPost)
	api.HandleFunc("/{id}/stats", h.latestStats).Methods(http.MethodGet)
	api.HandleFunc("/{id}/stats/history", h.statsHistory).Methods(http.MethodGet)
	api.HandleFunc("/{id}/interfaces", h.interfaces).Methods(http.MethodGet)
	api.HandleFunc("/{id}/sessions", h.sessions).Methods(http.MethodGet)
}

type deviceInput struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (in *deviceInput) validate() string {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Type) == "" ||
		strings.TrimSpace(in.Host) == "" || in.Username == "" || in.Password == "" {
		return "name, type, host, username and password are required"
	}
	if in.Port == 0 {
		in.Port = 8728 // MikroTik API default
	}
	if in.Port < 1 || in.Port > 65535 {
		return "port must be between 1 and 65535"
	}
	return ""
}

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	return uint(id), err == nil && id != 0
}

func (h *HTTP) list(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ds, err := h.repo.List()
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(ds)
}

func (h *HTTP) create(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var in deviceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if msg := in.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	d := &models.Device{
		Name:     strings.TrimSpace(in.Name),
		Type:     strings.TrimSpace(in.Type),
		Host:     strings.TrimSpace(in.Host),
		Port:     in.Port,
		Username: strings.TrimSpace(in.Username),
		Password: in.Password,
	}
	if err := h.repo.Create(d); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(d)
}

func (h *HTTP) update(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}
	d, err := h.repo.Get(id)
	if err != nil {
		http.Error(w, "device not found", http.StatusNotFound)
		return
	}
	var in deviceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if msg := in.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	d.Name = strings.TrimSpace(in.Name)
	d.Type = strings.TrimSpace(in.Type)
	d.Host = strings.TrimSpace(in.Host)
	d.Port = in.Port
	d.Username = strings.TrimSpace(in.Username)
	d.Password = in.Password
	if err := h.repo.Update(d); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(d)
}

func (h *HTTP) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}
	if _, err := h.repo.Get(id); err != nil {
		http.Error(w, "device not found", http.StatusNotFound)
		return
	}
	if err := h.repo.Delete(id); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "device deleted"})
}

func (h *HTTP) sync(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}
	status, err := h.engine.SyncDevice(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "device not found", http.StatusNotFound)
		return
	}
	if err != nil {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message":   "device sync failed",
			"is_online": false,
			"error":     err.Error(),
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message":   "device sync completed",
		"is_online": status.IsOnline,
		"identity":  status.Identity,
		"version":   status.Version,
		"synced_at": status.SyncedAt,
	})
}

func (h *HTTP) test(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}
	_ = json.NewEncoder(w).Encode(h.engine.TestDeviceConnection(id))
}

// latestStats returns the newest snapshot. A device that was never sampled
// gets a synthesized snapshot stored on first read.
func (h *HTTP) latestStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}
	if _, err := h.repo.Get(id); err != nil {
		http.Error(w, "device not found", http.StatusNotFound)
		return
	}
	s, err := h.repo.LatestStat(id)
	if err != nil {
		s = synthesizeStat(id)
		if err := h.repo.RecordStat(s); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
	}
	_ = json.NewEncoder(w).Encode(s)
}

func (h *HTTP) statsHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}
	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			hours = n
		}
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	rows, err := h.repo.StatsSince(id, since)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(rows)
}

func (h *HTTP) interfaces(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}
	stats, err := h.engine.InterfaceStats(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	_ = json.NewEncoder(w).Encode(stats)
}

func (h *HTTP) sessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}
	sessions, err := h.engine.ActiveSessions(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	_ = json.NewEncoder(w).Encode(sessions)
}
