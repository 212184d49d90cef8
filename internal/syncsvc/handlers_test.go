package syncsvc_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mikronet/internal/mikrotik"
	"mikronet/internal/syncsvc"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPullEndpoint(t *testing.T) {
	f := newFixture(t, "changeme")
	f.session.hotspotUsers = []mikrotik.User{
		{Name: "alice", Password: "a1"},
		{Name: "bob", Password: "b1"},
	}

	router := mux.NewRouter()
	syncsvc.NewHTTP(f.engine).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/hotspot-users/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res syncsvc.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, syncsvc.Result{Inserted: 2, Total: 2}, res)
}

func TestPullEndpointStatusMapping(t *testing.T) {
	f := newFixture(t, "changeme")
	router := mux.NewRouter()
	syncsvc.NewHTTP(f.engine).RegisterRoutes(router)

	// unknown device
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/pppoe-users/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// unsupported device type
	f.device.Type = "Generic"
	require.NoError(t, f.devices.Update(f.device))
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sync/pppoe-users/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
