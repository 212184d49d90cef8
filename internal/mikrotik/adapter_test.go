package mikrotik

import (
	"errors"
	"testing"

	"mikronet/internal/routeros"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner answers each command from a canned table and records calls.
type scriptedRunner struct {
	replies map[string][]map[string]string
	errs    map[string]error
	calls   []string
	args    map[string][]string
}

func newScriptedRunner() *scriptedRunner {
	return &scriptedRunner{
		replies: map[string][]map[string]string{},
		errs:    map[string]error{},
		args:    map[string][]string{},
	}
}

func (s *scriptedRunner) Run(command string, args ...string) ([]map[string]string, error) {
	s.calls = append(s.calls, command)
	s.args[command] = args
	if err := s.errs[command]; err != nil {
		return nil, err
	}
	return s.replies[command], nil
}

func TestTestConnection(t *testing.T) {
	s := newScriptedRunner()
	s.replies["/system/identity/print"] = []map[string]string{{"name": "core-router"}}
	s.replies["/system/resource/print"] = []map[string]string{{"version": "7.15.3"}}

	id, ver, err := NewAdapter(s).TestConnection()
	require.NoError(t, err)
	assert.Equal(t, "core-router", id)
	assert.Equal(t, "7.15.3", ver)
}

func TestTestConnectionDefaults(t *testing.T) {
	s := newScriptedRunner()
	s.replies["/system/identity/print"] = []map[string]string{{}}
	s.replies["/system/resource/print"] = nil

	id, ver, err := NewAdapter(s).TestConnection()
	require.NoError(t, err)
	assert.Equal(t, "Unknown", id)
	assert.Equal(t, "Unknown", ver)
}

func TestSystemResource(t *testing.T) {
	s := newScriptedRunner()
	s.replies["/system/resource/print"] = []map[string]string{{
		"cpu-load":        "12",
		"total-memory":    "268435456",
		"free-memory":     "134217728",
		"total-hdd-space": "16777216",
		"free-hdd-space":  "8388608",
		"uptime":          "2d3h4m5s",
		"board-name":      "RB5009",
		"version":         "7.15.3",
	}}

	res, err := NewAdapter(s).SystemResource()
	require.NoError(t, err)
	assert.Equal(t, 12.0, res.CPULoad)
	assert.Equal(t, int64(268435456), res.TotalMemory)
	assert.Equal(t, int64(134217728), res.FreeMemory)
	assert.Equal(t, int64(2*86400+3*3600+4*60+5), res.UptimeSeconds)
	assert.Equal(t, "RB5009", res.BoardName)
}

func TestHotspotUsersParsing(t *testing.T) {
	s := newScriptedRunner()
	s.replies["/ip/hotspot/user/print"] = []map[string]string{
		{"name": "alice", "password": "pw", "profile": "gold", "disabled": "yes",
			"bytes-in": "1024", "bytes-out": "2048", "uptime": "45s"},
		{"name": "bob", "profile": "default", "disabled": "false"},
	}

	users := NewAdapter(s).HotspotUsers()
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Name)
	assert.True(t, users[0].Disabled)
	assert.Equal(t, int64(1024), users[0].BytesIn)
	assert.Equal(t, int64(45), users[0].UptimeSeconds)
	assert.False(t, users[1].Disabled)
}

func TestListSwallowsCommandErrors(t *testing.T) {
	s := newScriptedRunner()
	s.errs["/ip/hotspot/user/print"] = routeros.ErrCommand

	assert.Nil(t, NewAdapter(s).HotspotUsers())
}

func TestPppoeProfilesParsing(t *testing.T) {
	s := newScriptedRunner()
	s.replies["/ppp/profile/print"] = []map[string]string{
		{"name": "pppoe-5m", "rate-limit": "5M/5M", "session-timeout": "1h",
			"local-address": "10.0.0.1", "remote-address": "pool-pppoe"},
		{"name": "default"},
	}

	ps := NewAdapter(s).PppoeProfiles()
	require.Len(t, ps, 2)
	assert.Equal(t, "5M/5M", ps[0].RateLimit)
	require.NotNil(t, ps[0].SessionTimeout)
	assert.Equal(t, int64(3600), *ps[0].SessionTimeout)
	assert.Equal(t, "pool-pppoe", ps[0].RemoteAddress)
	assert.Nil(t, ps[1].SessionTimeout)
}

func TestAddPppoeUserArgs(t *testing.T) {
	s := newScriptedRunner()
	err := NewAdapter(s).AddPppoeUser(User{
		Name:     "carol",
		Password: "pw",
		Profile:  "pppoe-5m",
		Service:  "pppoe",
		CallerID: "AA:BB:CC:DD:EE:FF",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"=name=carol",
		"=password=pw",
		"=profile=pppoe-5m",
		"=service=pppoe",
		"=caller-id=AA:BB:CC:DD:EE:FF",
	}, s.args["/ppp/secret/add"])
}

func TestUpdateHotspotUserResolvesID(t *testing.T) {
	s := newScriptedRunner()
	s.replies["/ip/hotspot/user/print"] = []map[string]string{{".id": "*1A", "name": "alice"}}

	err := NewAdapter(s).UpdateHotspotUser("alice", User{Password: "new"})
	require.NoError(t, err)
	assert.Equal(t, []string{"?name=alice"}, s.args["/ip/hotspot/user/print"])
	assert.Contains(t, s.args["/ip/hotspot/user/set"], "=.id=*1A")
	assert.Contains(t, s.args["/ip/hotspot/user/set"], "=disabled=no")
}

func TestUpdateMissingUser(t *testing.T) {
	s := newScriptedRunner()
	// lookup returns no rows

	err := NewAdapter(s).UpdatePppoeUser("ghost", User{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveHotspotUser(t *testing.T) {
	s := newScriptedRunner()
	s.replies["/ip/hotspot/user/print"] = []map[string]string{{".id": "*2B"}}

	require.NoError(t, NewAdapter(s).RemoveHotspotUser("alice"))
	assert.Equal(t, []string{"=.id=*2B"}, s.args["/ip/hotspot/user/remove"])
}

func TestActiveSessionsMergesSources(t *testing.T) {
	s := newScriptedRunner()
	s.replies["/ip/hotspot/active/print"] = []map[string]string{
		{"user": "alice", "address": "10.5.0.2", "uptime": "4m5s"},
	}
	s.replies["/ppp/active/print"] = []map[string]string{
		{"name": "carol", "address": "10.6.0.2", "caller-id": "AA:BB:CC:DD:EE:FF"},
	}

	ss := NewAdapter(s).ActiveSessions()
	require.Len(t, ss, 2)
	assert.Equal(t, "hotspot", ss[0].Type)
	assert.Equal(t, int64(245), ss[0].UptimeSeconds)
	assert.Equal(t, "pppoe", ss[1].Type)
	assert.Equal(t, "carol", ss[1].User) // ppp/active reports "name", not "user"
}

func TestConnectionErrorPropagates(t *testing.T) {
	s := newScriptedRunner()
	s.errs["/system/resource/print"] = routeros.ErrNotConnected

	_, err := NewAdapter(s).SystemResource()
	require.True(t, errors.Is(err, routeros.ErrNotConnected))
}
