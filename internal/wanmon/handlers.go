package wanmon

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"mikronet/internal/models"

	"github.com/gorilla/mux"
)

type HTTP struct {
	repo         *Repo
	pinger       prober
	historyLimit int
}

func NewHTTP(repo *Repo, pinger prober, historyLimit int) *HTTP {
	if historyLimit <= 0 {
		historyLimit = 1000
	}
	return &HTTP{repo: repo, pinger: pinger, historyLimit: historyLimit}
}

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1/wan-monitors").Subrouter()

	api.HandleFunc("", h.list).Methods(http.MethodGet)
	api.HandleFunc("", h.create).Methods(http.MethodPost)
	api.HandleFunc("/ping-all", h.pingAll).Methods(http.MethodPost)
	api.HandleFunc("/{id}", h.update).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/{id}", h.remove).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/ping", h.ping).Methods(http.MethodPost)
	api.HandleFunc("/{id}/history", h.history).Methods(http.MethodGet)
}

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	return uint(id), err == nil && id != 0
}

func (h *HTTP) list(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ms, err := h.repo.List()
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(ms)
}

func (h *HTTP) create(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var in struct {
		Name        string `json:"name"`
		Host        string `json:"host"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" || in.Host == "" {
		http.Error(w, "name and host are required", http.StatusBadRequest)
		return
	}
	m := &models.WanMonitor{Name: in.Name, Host: in.Host, Description: in.Description, IsActive: true}
	if err := h.repo.Create(m); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(m)
}

func (h *HTTP) update(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid monitor id", http.StatusBadRequest)
		return
	}
	m, err := h.repo.Get(id)
	if err != nil {
		http.Error(w, "WAN monitor not found", http.StatusNotFound)
		return
	}
	var in struct {
		Name        *string `json:"name"`
		Host        *string `json:"host"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if in.Name != nil {
		m.Name = *in.Name
	}
	if in.Host != nil {
		m.Host = *in.Host
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	if err := h.repo.Save(m); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(m)
}

func (h *HTTP) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid monitor id", http.StatusBadRequest)
		return
	}
	if _, err := h.repo.Get(id); err != nil {
		http.Error(w, "WAN monitor not found", http.StatusNotFound)
		return
	}
	if err := h.repo.Delete(id); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "WAN monitor deleted"})
}

// ping probes one monitor on demand, regardless of its active flag.
func (h *HTTP) ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid monitor id", http.StatusBadRequest)
		return
	}
	m, err := h.repo.Get(id)
	if err != nil {
		http.Error(w, "WAN monitor not found", http.StatusNotFound)
		return
	}
	res := h.pinger.Ping(m.Host)
	if err := h.repo.RecordResult(m.ID, time.Now(), res); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if err := h.repo.PruneHistory(m.ID, h.historyLimit); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

type monitorResult struct {
	MonitorID uint   `json:"monitor_id"`
	Name      string `json:"name"`
	Host      string `json:"host"`
	PingResult
}

func (h *HTTP) pingAll(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	monitors, err := h.repo.ListActive()
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	results := make([]monitorResult, 0, len(monitors))
	succeeded := 0
	for _, m := range monitors {
		res := h.pinger.Ping(m.Host)
		if err := h.repo.RecordResult(m.ID, time.Now(), res); err == nil {
			_ = h.repo.PruneHistory(m.ID, h.historyLimit)
		}
		if res.Success {
			succeeded++
		}
		results = append(results, monitorResult{MonitorID: m.ID, Name: m.Name, Host: m.Host, PingResult: res})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"total":     len(monitors),
		"succeeded": succeeded,
		"failed":    len(monitors) - succeeded,
		"results":   results,
	})
}

func (h *HTTP) history(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid monitor id", http.StatusBadRequest)
		return
	}
	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			hours = n
		}
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	rows, err := h.repo.HistorySince(id, since)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(rows)
}
