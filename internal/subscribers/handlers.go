package subscribers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"mikronet/internal/devices"
	"mikronet/internal/models"
	"mikronet/internal/syncsvc"

	"github.com/gorilla/mux"
)

type HTTP struct {
	repo    *Repo
	devices *devices.Repo
	engine  *syncsvc.Engine
}

func NewHTTP(repo *Repo, dev *devices.Repo, engine *syncsvc.Engine) *HTTP {
	return &HTTP{repo: repo, devices: dev, engine: engine}
}

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	// hotspot users
	api.HandleFunc("/users/hotspot/{deviceId}", h.listHotspotUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/hotspot", h.createHotspotUser).Methods(http.MethodPost)
	api.HandleFunc("/users/hotspot/{id}", h.updateHotspotUser).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/users/hotspot/{id}", h.deleteHotspotUser).Methods(http.MethodDelete)

	// pppoe users
	api.HandleFunc("/users/pppoe/{deviceId}", h.listPppoeUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/pppoe/detail/{id}", h.getPppoeUser).Methods(http.MethodGet)
	api.HandleFunc("/users/pppoe", h.createPppoeUser).Methods(http.MethodPost)
	api.HandleFunc("/users/pppoe/{id}", h.updatePppoeUser).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/users/pppoe/{id}", h.deletePppoeUser).Methods(http.MethodDelete)

	// profiles
	api.HandleFunc("/profiles/hotspot/{deviceId}", h.listHotspotProfiles).Methods(http.MethodGet)
	api.HandleFunc("/profiles/hotspot/{id}", h.deleteHotspotProfile).Methods(http.MethodDelete)
	api.HandleFunc("/profiles/pppoe/{deviceId}", h.listPppoeProfiles).Methods(http.MethodGet)
	api.HandleFunc("/profiles/pppoe/{id}", h.deletePppoeProfile).Methods(http.MethodDelete)

	// service packages
	api.HandleFunc("/service-packages", h.listServicePackages).Methods(http.MethodGet)
	api.HandleFunc("/service-packages", h.createServicePackage).Methods(http.MethodPost)
	api.HandleFunc("/service-packages/{id}", h.updateServicePackage).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/service-packages/{id}", h.deleteServicePackage).Methods(http.MethodDelete)
}

func pathUint(r *http.Request, key string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[key], 10, 64)
	return uint(id), err == nil && id != 0
}

// pushHotspot mirrors a local account mutation to the device when its type
// supports it. Best effort, runs inline: device round-trips are bounded by
// the session timeouts.
func (h *HTTP) pushHotspot(deviceID uint, u models.HotspotUser, isNew bool) {
	if d, err := h.devices.Get(deviceID); err == nil && d.Type == models.DeviceTypeMikroTik {
		h.engine.PushHotspotUser(deviceID, u, isNew)
	}
}

func (h *HTTP) pushPppoe(deviceID uint, u models.PppoeUser, isNew bool) {
	if d, err := h.devices.Get(deviceID); err == nil && d.Type == models.DeviceTypeMikroTik {
		h.engine.PushPppoeUser(deviceID, u, isNew)
	}
}

// ── hotspot users ───────────────────────────────────────────

func (h *HTTP) listHotspotUsers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	deviceID, ok := pathUint(r, "deviceId")
	if !ok {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}
	us, err := h.repo.ListHotspotUsers(deviceID)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(us)
}

func (h *HTTP) createHotspotUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var in struct {
		DeviceID uint   `json:"device_id"`
		Username string `json:"username"`
		Password string `json:"password"`
		Profile  string `json:"profile"`
		Comment  string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil ||
		in.DeviceID == 0 || in.Username == "" || in.Password == "" {
		http.Error(w, "device_id, username and password are required", http.StatusBadRequest)
		return
	}
	u := &models.HotspotUser{
		DeviceID: in.DeviceID,
		Username: in.Username,
		Password: in.Password,
		Profile:  in.Profile,
		Comment:  in.Comment,
	}
	if err := h.repo.CreateHotspotUser(u); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.pushHotspot(u.DeviceID, *u, true)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(u)
}

func (h *HTTP) updateHotspotUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, ok := pathUint(r, "id")
	if !ok {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	u, err := h.repo.GetHotspotUser(id)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	var in struct {
		Username *string `json:"username"`
		Password *string `json:"password"`
		Profile  *string `json:"profile"`
		Comment  *string `json:"comment"`
		Disabled *bool   `json:"disabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.Password != nil {
		u.Password = *in.Password
	}
	if in.Profile != nil {
		u.Profile = *in.Profile
	}
	if in.Comment != nil {
		u.Comment = *in.Comment
	}
	if in.Disabled != nil {
		u.Disabled = *in.Disabled
	}
	if err := h.repo.SaveHotspotUser(u); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	h.pushHotspot(u.DeviceID, *u, false)
	_ = json.NewEncoder(w).Encode(u)
}

func (h *HTTP) deleteHotspotUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	u, err := h.repo.GetHotspotUser(id)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err := h.repo.DeleteHotspotUser(id); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if d, err := h.devices.Get(u.DeviceID); err == nil && d.Type == models.DeviceTypeMikroTik {
		h.engine.RemoveHotspotUser(u.DeviceID, u.Username)
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "user deleted"})
}

// ── pppoe users ─────────────────────────────────────────────

func (h *HTTP) listPppoeUsers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	deviceID, ok := pathUint(r, "deviceId")
	if !ok {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}
	us, err := h.repo.ListPppoeUsers(deviceID)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(us)
}

func (h *HTTP) getPppoeUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, ok := pathUint(r, "id")
	if !ok {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	u, err := h.repo.GetPppoeUser(id)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(u)
}

type pppoeUserInput struct {
	Username         *string  `json:"username"`
	Password         *string  `json:"password"`
	Profile          *string  `json:"profile"`
	Service          *string  `json:"service"`
	CallerID         *string  `json:"caller_id"`
	Comment          *string  `json:"comment"`
	Disabled         *bool    `json:"disabled"`
	ContactName      *string  `json:"contact_name"`
	ContactPhone     *string  `json:"contact_phone"`
	ContactWhatsapp  *string  `json:"contact_whatsapp"`
	CustomerName     *string  `json:"customer_name"`
	CustomerAddress  *string  `json:"customer_address"`
	IPAddress        *string  `json:"ip_address"`
	ServiceCost      *float64 `json:"service_cost"`
	ServicePackageID *uint    `json:"service_package_id"`
}

func (in *pppoeUserInput) apply(u *models.PppoeUser) {
	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.Password != nil {
		u.Password = *in.Password
	}
	if in.Profile != nil {
		u.Profile = *in.Profile
	}
	if in.Service != nil {
		u.Service = *in.Service
	}
	if in.CallerID != nil {
		u.CallerID = *in.CallerID
	}
	if in.Comment != nil {
		u.Comment = *in.Comment
	}
	if in.Disabled != nil {
		u.Disabled = *in.Disabled
	}
	if in.ContactName != nil {
		u.ContactName = *in.ContactName
	}
	if in.ContactPhone != nil {
		u.ContactPhone = *in.ContactPhone
	}
	if in.ContactWhatsapp != nil {
		u.ContactWhatsapp = *in.ContactWhatsapp
	}
	if in.CustomerName != nil {
		u.CustomerName = *in.CustomerName
	}
	if in.CustomerAddress != nil {
		u.CustomerAddress = *in.CustomerAddress
	}
	if in.IPAddress != nil {
		u.IPAddress = *in.IPAddress
	}
	if in.ServiceCost != nil {
		u.ServiceCost = *in.ServiceCost
	}
	if in.ServicePackageID != nil {
		u.ServicePackageID = in.ServicePackageID
	}
}

func (h *HTTP) createPppoeUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var in struct {
		DeviceID uint `json:"device_id"`
		pppoeUserInput
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil ||
		in.DeviceID == 0 || in.Username == nil || *in.Username == "" ||
		in.Password == nil || *in.Password == "" {
		http.Error(w, "device_id, username and password are required", http.StatusBadRequest)
		return
	}
	u := &models.PppoeUser{DeviceID: in.DeviceID}
	in.apply(u)
	if err := h.repo.CreatePppoeUser(u); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.pushPppoe(u.DeviceID, *u, true)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(u)
}

func (h *HTTP) updatePppoeUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, ok := pathUint(r, "id")
	if !ok {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	u, err := h.repo.GetPppoeUser(id)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	var in pppoeUserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in.apply(u)
	if err := h.repo.SavePppoeUser(u); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	h.pushPppoe(u.DeviceID, *u, false)
	_ = json.NewEncoder(w).Encode(u)
}

func (h *HTTP) deletePppoeUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	u, err := h.repo.GetPppoeUser(id)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err := h.repo.DeletePppoeUser(id); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if d, err := h.devices.Get(u.DeviceID); err == nil && d.Type == models.DeviceTypeMikroTik {
		h.engine.RemovePppoeUser(u.DeviceID, u.Username)
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "user deleted"})
}

// ── profiles ────────────────────────────────────────────────

func (h *HTTP) listHotspotProfiles(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	deviceID, ok := pathUint(r, "deviceId")
	if !ok {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}
	ps, err := h.repo.ListHotspotProfiles(deviceID)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(ps)
}

func (h *HTTP) deleteHotspotProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		http.Error(w, "invalid profile id", http.StatusBadRequest)
		return
	}
	if err := h.repo.DeleteHotspotProfile(id); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "profile deleted"})
}

func (h *HTTP) listPppoeProfiles(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	deviceID, ok := pathUint(r, "deviceId")
	if !ok {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}
	ps, err := h.repo.ListPppoeProfiles(deviceID)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(ps)
}

func (h *HTTP) deletePppoeProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		http.Error(w, "invalid profile id", http.StatusBadRequest)
		return
	}
	if err := h.repo.DeletePppoeProfile(id); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "profile deleted"})
}

// ── service packages ────────────────────────────────────────

func (h *HTTP) listServicePackages(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ps, err := h.repo.ListServicePackages()
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(ps)
}

func (h *HTTP) createServicePackage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var in models.ServicePackage
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := h.repo.CreateServicePackage(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(in)
}

func (h *HTTP) updateServicePackage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, ok := pathUint(r, "id")
	if !ok {
		http.Error(w, "invalid package id", http.StatusBadRequest)
		return
	}
	p, err := h.repo.GetServicePackage(id)
	if err != nil {
		http.Error(w, "package not found", http.StatusNotFound)
		return
	}
	var in struct {
		Name          *string  `json:"name"`
		Description   *string  `json:"description"`
		Price         *float64 `json:"price"`
		BandwidthUp   *string  `json:"bandwidth_up"`
		BandwidthDown *string  `json:"bandwidth_down"`
		DurationDays  *int     `json:"duration_days"`
		IsActive      *bool    `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.BandwidthUp != nil {
		p.BandwidthUp = *in.BandwidthUp
	}
	if in.BandwidthDown != nil {
		p.BandwidthDown = *in.BandwidthDown
	}
	if in.DurationDays != nil {
		p.DurationDays = *in.DurationDays
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := h.repo.SaveServicePackage(p); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(p)
}

func (h *HTTP) deleteServicePackage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		http.Error(w, "invalid package id", http.StatusBadRequest)
		return
	}
	if err := h.repo.DeleteServicePackage(id); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "package deleted"})
}
