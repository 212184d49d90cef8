package mikrotik

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"mikronet/internal/logs"
	"mikronet/internal/routeros"

	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned by update/remove when no entity on the device
// matches the given username.
var ErrNotFound = errors.New("mikrotik: entity not found on device")

// runner is the slice of routeros.Client the adapter needs. Tests provide a
// scripted implementation.
type runner interface {
	Run(command string, args ...string) ([]map[string]string, error)
}

// Adapter exposes typed vendor operations over one RouterOS session.
// Raw protocol maps are parsed at this boundary; nothing above it sees
// vendor key names.
type Adapter struct {
	c   runner
	log *logrus.Entry
}

func NewAdapter(c runner) *Adapter {
	return &Adapter{c: c, log: logs.Component("mikrotik")}
}

// Connect dials the device and returns an adapter plus the close function the
// caller must defer.
func Connect(host string, port int, username, password string, connectTimeout, commandTimeout time.Duration) (*Adapter, func(), error) {
	c, err := routeros.Dial(host, port, username, password, connectTimeout, commandTimeout)
	if err != nil {
		return nil, nil, err
	}
	return NewAdapter(c), c.Close, nil
}

type SystemResource struct {
	CPULoad       float64
	TotalMemory   int64
	FreeMemory    int64
	TotalDisk     int64
	FreeDisk      int64
	UptimeSeconds int64
	BoardName     string
	Version       string
}

type Profile struct {
	Name           string
	RateLimit      string
	SessionTimeout *int64
	SharedUsers    int    // hotspot only
	LocalAddress   string // pppoe only
	RemoteAddress  string // pppoe only
}

type User struct {
	Name          string
	Password      string
	Profile       string
	Comment       string
	Disabled      bool
	BytesIn       int64
	BytesOut      int64
	UptimeSeconds int64
	Service       string // pppoe only
	CallerID      string // pppoe only
}

type InterfaceStats struct {
	Name      string
	Type      string
	Running   bool
	Disabled  bool
	TxBytes   int64
	RxBytes   int64
	TxPackets int64
	RxPackets int64
	TxErrors  int64
	RxErrors  int64
	TxDrops   int64
	RxDrops   int64
	MTU       int
	LinkDowns int64
	Comment   string
}

type ActiveSession struct {
	Type          string // "hotspot" | "pppoe"
	User          string
	Address       string
	CallerID      string
	UptimeSeconds int64
	BytesIn       int64
	BytesOut      int64
}

// TestConnection reads the device identity and firmware version.
func (a *Adapter) TestConnection() (identity, version string, err error) {
	idRe, err := a.c.Run("/system/identity/print")
	if err != nil {
		return "", "", err
	}
	resRe, err := a.c.Run("/system/resource/print")
	if err != nil {
		return "", "", err
	}
	identity, version = "Unknown", "Unknown"
	if len(idRe) > 0 && idRe[0]["name"] != "" {
		identity = idRe[0]["name"]
	}
	if len(resRe) > 0 && resRe[0]["version"] != "" {
		version = resRe[0]["version"]
	}
	return identity, version, nil
}

func (a *Adapter) SystemResource() (*SystemResource, error) {
	re, err := a.c.Run("/system/resource/print")
	if err != nil {
		return nil, err
	}
	if len(re) == 0 {
		return nil, fmt.Errorf("%w: empty /system/resource reply", routeros.ErrCommand)
	}
	m := re[0]
	return &SystemResource{
		CPULoad:       atof(m["cpu-load"]),
		TotalMemory:   ParseBytes(m["total-memory"]),
		FreeMemory:    ParseBytes(m["free-memory"]),
		TotalDisk:     ParseBytes(m["total-hdd-space"]),
		FreeDisk:      ParseBytes(m["free-hdd-space"]),
		UptimeSeconds: ParseDuration(m["uptime"]),
		BoardName:     m["board-name"],
		Version:       m["version"],
	}, nil
}

// List operations deliberately swallow command failures: a device without the
// hotspot package (for example) must not break a partial sync. ErrNotConnected
// still propagates via the empty result.

func (a *Adapter) HotspotProfiles() []Profile {
	return a.listProfiles("/ip/hotspot/user/profile/print", true)
}

func (a *Adapter) PppoeProfiles() []Profile {
	return a.listProfiles("/ppp/profile/print", false)
}

func (a *Adapter) listProfiles(cmd string, hotspot bool) []Profile {
	re, err := a.c.Run(cmd)
	if err != nil {
		a.log.Warnf("%s failed: %v", cmd, err)
		return nil
	}
	out := make([]Profile, 0, len(re))
	for _, m := range re {
		p := Profile{
			Name:      m["name"],
			RateLimit: m["rate-limit"],
		}
		if v, ok := m["session-timeout"]; ok && v != "" {
			t := ParseDuration(v)
			p.SessionTimeout = &t
		}
		if hotspot {
			p.SharedUsers = int(atoi(m["shared-users"], 1))
		} else {
			p.LocalAddress = m["local-address"]
			p.RemoteAddress = m["remote-address"]
		}
		out = append(out, p)
	}
	return out
}

func (a *Adapter) HotspotUsers() []User {
	return a.listUsers("/ip/hotspot/user/print")
}

func (a *Adapter) PppoeUsers() []User {
	return a.listUsers("/ppp/secret/print")
}

func (a *Adapter) listUsers(cmd string) []User {
	re, err := a.c.Run(cmd)
	if err != nil {
		a.log.Warnf("%s failed: %v", cmd, err)
		return nil
	}
	out := make([]User, 0, len(re))
	for _, m := range re {
		out = append(out, User{
			Name:          m["name"],
			Password:      m["password"],
			Profile:       m["profile"],
			Comment:       m["comment"],
			Disabled:      m["disabled"] == "true" || m["disabled"] == "yes",
			BytesIn:       ParseBytes(m["bytes-in"]),
			BytesOut:      ParseBytes(m["bytes-out"]),
			UptimeSeconds: ParseDuration(m["uptime"]),
			Service:       m["service"],
			CallerID:      m["caller-id"],
		})
	}
	return out
}

func (a *Adapter) ListInterfaceStats() []InterfaceStats {
	re, err := a.c.Run("/interface/print", "=stats=")
	if err != nil {
		a.log.Warnf("/interface/print failed: %v", err)
		return nil
	}
	out := make([]InterfaceStats, 0, len(re))
	for _, m := range re {
		typ := m["type"]
		if typ == "" {
			typ = "ether"
		}
		out = append(out, InterfaceStats{
			Name:      m["name"],
			Type:      typ,
			Running:   m["running"] == "true",
			Disabled:  m["disabled"] == "true",
			TxBytes:   ParseBytes(m["tx-byte"]),
			RxBytes:   ParseBytes(m["rx-byte"]),
			TxPackets: atoi(m["tx-packet"], 0),
			RxPackets: atoi(m["rx-packet"], 0),
			TxErrors:  atoi(m["tx-error"], 0),
			RxErrors:  atoi(m["rx-error"], 0),
			TxDrops:   atoi(m["tx-drop"], 0),
			RxDrops:   atoi(m["rx-drop"], 0),
			MTU:       int(atoi(m["mtu"], 1500)),
			LinkDowns: atoi(m["link-downs"], 0),
			Comment:   m["comment"],
		})
	}
	return out
}

func (a *Adapter) ActiveSessions() []ActiveSession {
	var out []ActiveSession
	out = append(out, a.activeSessions("/ip/hotspot/active/print", "hotspot")...)
	out = append(out, a.activeSessions("/ppp/active/print", "pppoe")...)
	return out
}

func (a *Adapter) activeSessions(cmd, typ string) []ActiveSession {
	re, err := a.c.Run(cmd)
	if err != nil {
		a.log.Warnf("%s failed: %v", cmd, err)
		return nil
	}
	out := make([]ActiveSession, 0, len(re))
	for _, m := range re {
		user := m["user"]
		if user == "" {
			user = m["name"]
		}
		out = append(out, ActiveSession{
			Type:          typ,
			User:          user,
			Address:       m["address"],
			CallerID:      m["caller-id"],
			UptimeSeconds: ParseDuration(m["uptime"]),
			BytesIn:       ParseBytes(m["bytes-in"]),
			BytesOut:      ParseBytes(m["bytes-out"]),
		})
	}
	return out
}

// ── mutations ───────────────────────────────────────────────

func (a *Adapter) AddHotspotUser(u User) error {
	return a.addUser("/ip/hotspot/user/add", u, false)
}

func (a *Adapter) AddPppoeUser(u User) error {
	return a.addUser("/ppp/secret/add", u, true)
}

func (a *Adapter) addUser(cmd string, u User, pppoe bool) error {
	args := []string{"=name=" + u.Name}
	if u.Password != "" {
		args = append(args, "=password="+u.Password)
	}
	if u.Profile != "" {
		args = append(args, "=profile="+u.Profile)
	}
	if pppoe && u.Service != "" {
		args = append(args, "=service="+u.Service)
	}
	if pppoe && u.CallerID != "" {
		args = append(args, "=caller-id="+u.CallerID)
	}
	if u.Comment != "" {
		args = append(args, "=comment="+u.Comment)
	}
	if u.Disabled {
		args = append(args, "=disabled=yes")
	}
	_, err := a.c.Run(cmd, args...)
	return err
}

func (a *Adapter) UpdateHotspotUser(username string, u User) error {
	return a.setUser("/ip/hotspot/user", username, u, false)
}

func (a *Adapter) UpdatePppoeUser(username string, u User) error {
	return a.setUser("/ppp/secret", username, u, true)
}

func (a *Adapter) setUser(base, username string, u User, pppoe bool) error {
	id, err := a.resolveID(base, username)
	if err != nil {
		return err
	}
	args := []string{"=.id=" + id}
	if u.Password != "" {
		args = append(args, "=password="+u.Password)
	}
	if u.Profile != "" {
		args = append(args, "=profile="+u.Profile)
	}
	if pppoe && u.Service != "" {
		args = append(args, "=service="+u.Service)
	}
	if pppoe && u.CallerID != "" {
		args = append(args, "=caller-id="+u.CallerID)
	}
	if u.Comment != "" {
		args = append(args, "=comment="+u.Comment)
	}
	if u.Disabled {
		args = append(args, "=disabled=yes")
	} else {
		args = append(args, "=disabled=no")
	}
	_, err = a.c.Run(base+"/set", args...)
	return err
}

func (a *Adapter) RemoveHotspotUser(username string) error {
	return a.removeUser("/ip/hotspot/user", username)
}

func (a *Adapter) RemovePppoeUser(username string) error {
	return a.removeUser("/ppp/secret", username)
}

func (a *Adapter) removeUser(base, username string) error {
	id, err := a.resolveID(base, username)
	if err != nil {
		return err
	}
	_, err = a.c.Run(base+"/remove", "=.id="+id)
	return err
}

// resolveID looks up the vendor ".id" for an exact username match.
func (a *Adapter) resolveID(base, username string) (string, error) {
	re, err := a.c.Run(base+"/print", "?name="+username)
	if err != nil {
		return "", err
	}
	if len(re) == 0 {
		return "", fmt.Errorf("%w: %s %q", ErrNotFound, base, username)
	}
	return re[0][".id"], nil
}

func atoi(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
