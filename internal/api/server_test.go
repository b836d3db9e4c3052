package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"brigade/internal/database"
	"brigade/internal/models"
	"brigade/internal/routing"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	gormlib "github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var apiTestDBCounter uint64

func newTestServer(t *testing.T, jwtSecret string) (*Server, *gormlib.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	n := atomic.AddUint64(&apiTestDBCounter, 1)
	db, err := gormlib.Open("sqlite3", fmt.Sprintf("file:apitest%d?mode=memory&cache=shared", n))
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	database.Migrate(db)
	t.Cleanup(func() { db.Close() })

	server := NewServer(db, routing.NewRegistry(db), nil, jwtSecret)
	return server, db
}

func doJSON(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, "")

	w := doJSON(t, server, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateStation(t *testing.T) {
	server, _ := newTestServer(t, "")

	w := doJSON(t, server, "POST", "/api/v1/stations", map[string]interface{}{
		"name":                    "Grill 1",
		"station_type":            "grill",
		"capacity":                4,
		"avg_preparation_minutes": 12,
		"equipment":               []string{"charbroiler"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response, "id")
}

func TestCreateStationRejectsUnknownType(t *testing.T) {
	server, db := newTestServer(t, "")

	w := doJSON(t, server, "POST", "/api/v1/stations", map[string]interface{}{
		"name":         "Mystery",
		"station_type": "sous-vide-lab",
		"capacity":     4,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// No state mutated.
	var count int
	db.Model(&models.Station{}).Count(&count)
	assert.Equal(t, 0, count)
}

func TestCreateStationRequiresCapacity(t *testing.T) {
	server, _ := newTestServer(t, "")

	w := doJSON(t, server, "POST", "/api/v1/stations", map[string]interface{}{
		"name":         "Grill 1",
		"station_type": "grill",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStationSnapshot(t *testing.T) {
	server, db := newTestServer(t, "")

	station := models.Station{
		Name: "Grill 1", Type: "grill", Capacity: 4, CurrentLoad: 1,
		EfficiencyScore: 100, AvgPrepMinutes: 12, IsActive: true,
	}
	require.NoError(t, db.Create(&station).Error)

	w := doJSON(t, server, "GET", fmt.Sprintf("/api/v1/stations/%d", station.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 25.0, view["load_percentage"])
	assert.Equal(t, true, view["is_available"])
}

func TestGetStationNotFound(t *testing.T) {
	server, _ := newTestServer(t, "")

	w := doJSON(t, server, "GET", "/api/v1/stations/404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateStationNotFound(t *testing.T) {
	server, _ := newTestServer(t, "")

	w := doJSON(t, server, "PUT", "/api/v1/stations/404", map[string]interface{}{
		"name":         "Grill 1",
		"station_type": "grill",
		"capacity":     4,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderRoutingEndToEnd(t *testing.T) {
	server, _ := newTestServer(t, "")

	// Two stations, one clearly better.
	w := doJSON(t, server, "POST", "/api/v1/stations", map[string]interface{}{
		"name": "Station A", "station_type": "grill", "capacity": 5,
		"avg_preparation_minutes": 10, "assigned_staff_count": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, server, "POST", "/api/v1/stations", map[string]interface{}{
		"name": "Station B", "station_type": "grill", "capacity": 5,
		"avg_preparation_minutes": 15, "assigned_staff_count": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, server, "POST", "/api/v1/orders", map[string]interface{}{
		"items": []map[string]interface{}{
			{"name": "burger", "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	orderID := int(created["id"].(float64))

	w = doJSON(t, server, "POST", fmt.Sprintf("/api/v1/orders/%d/route", orderID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1.0, result["routed"])
	assert.Equal(t, 0.0, result["unrouted"])

	outcomes := result["outcomes"].([]interface{})
	outcome := outcomes[0].(map[string]interface{})
	assert.Equal(t, "Station A", outcome["station_name"])
}

func TestRouteUnknownOrder(t *testing.T) {
	server, _ := newTestServer(t, "")

	w := doJSON(t, server, "POST", "/api/v1/orders/999/route", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRebalanceEmptyReturnsZero(t *testing.T) {
	server, _ := newTestServer(t, "")

	w := doJSON(t, server, "POST", "/api/v1/stations/rebalance", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 0.0, result["migrated"])
}

func TestOptimizeWithoutStations(t *testing.T) {
	server, _ := newTestServer(t, "")

	w := doJSON(t, server, "POST", "/api/v1/stations/optimize", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAssignmentStatusValidation(t *testing.T) {
	server, db := newTestServer(t, "")

	station := models.Station{Name: "Grill", Type: "grill", Capacity: 4, CurrentLoad: 1, EfficiencyScore: 100, IsActive: true}
	require.NoError(t, db.Create(&station).Error)
	assignment := models.Assignment{StationID: station.ID, Status: string(models.AssignmentStatusAssigned), Priority: 5}
	require.NoError(t, db.Create(&assignment).Error)

	w := doJSON(t, server, "POST", fmt.Sprintf("/api/v1/routing/%d/status", assignment.ID), map[string]string{
		"status": "incinerated",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, server, "POST", fmt.Sprintf("/api/v1/routing/%d/status", assignment.ID), map[string]string{
		"status": "started",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	server, _ := newTestServer(t, "topsecret")

	w := doJSON(t, server, "GET", "/api/v1/stations", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	server, _ := newTestServer(t, "topsecret")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ops"})
	signed, err := token.SignedString([]byte("topsecret"))
	require.NoError(t, err)

	req, err := http.NewRequest("GET", "/api/v1/stations", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+signed)

	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
