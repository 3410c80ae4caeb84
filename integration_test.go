package main

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/volunteer-hours-api/config"
	"github.com/kendall-kelly/volunteer-hours-api/models"
	"github.com/kendall-kelly/volunteer-hours-api/services"
	"github.com/kendall-kelly/volunteer-hours-api/session"
	"github.com/kendall-kelly/volunteer-hours-api/tests/testutil"
	"github.com/kendall-kelly/volunteer-hours-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	images   *services.MockImageService
	notifier *services.MockNotifier
	identity *services.MockIdentityGateway
}

func TestMain(m *testing.M) {
	os.Setenv("GO_ENV", "test")
	gin.SetMode(gin.TestMode)
	if err := utils.RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// stubAuth resolves bearer tokens through the mock identity gateway,
// setting the context the way EnsureValidToken does
func stubAuth(identity services.IdentityGateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		info, err := identity.GetUserInfo(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "INVALID_TOKEN", "message": utils.LocalizedMessage("INVALID_TOKEN")},
			})
			return
		}
		c.Set("user_id", info.Sub)
		c.Set("access_token", token)
		c.Next()
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)

	cfg := &config.Config{GoEnv: "test", Port: "8080", AllowedOrigins: []string{"http://localhost:3000"}}
	config.SetConfig(cfg)

	images := services.NewMockImageService()
	images.SetAsMockForTesting()
	notifier := services.NewMockNotifier()
	notifier.SetAsMockForTesting()
	identity := services.NewMockIdentityGateway()
	identity.SetAsMockForTesting()

	session.InitTracker(session.NewTracker(session.NewMemoryStore(), time.Hour, 5*time.Minute))

	return &testEnv{
		router:   setupRouter(cfg, stubAuth(identity)),
		db:       db,
		images:   images,
		notifier: notifier,
		identity: identity,
	}
}

// pinClock rebuilds the router around a tracker whose clock the test advances
func (e *testEnv) pinClock(start time.Time) *time.Time {
	now := start
	session.InitTracker(session.NewTracker(session.NewMemoryStore(), time.Hour, 5*time.Minute).WithClock(func() time.Time { return now }))
	e.router = setupRouter(config.GetConfig(), stubAuth(e.identity))
	return &now
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var response map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func (e *testEnv) upload(t *testing.T, path, token, field string, fields map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	body, contentType := testutil.MultipartImage(t, field, "slip.png", testutil.PNGBytes, fields)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var response map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	w, response := e.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return response["data"].(map[string]interface{})["access_token"].(string)
}

// TestHealthEndpointIntegration tests the /api/v1/health endpoint with full routing
func TestHealthEndpointIntegration(t *testing.T) {
	env := newTestEnv(t)

	w, response := env.do(t, http.MethodGet, "/api/v1/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code, "Expected status 200 OK")
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Volunteer Hours API is running", response["message"])
}

// TestHealthEndpointMethod tests that only GET method is allowed
func TestHealthEndpointMethod(t *testing.T) {
	env := newTestEnv(t)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		w, _ := env.do(t, method, "/api/v1/health", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s should not be allowed", method)
	}
}

// TestAPIV1Prefix tests that the endpoint requires /api/v1 prefix
func TestAPIV1Prefix(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "Endpoint should require /api/v1 prefix")

	w, _ = env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code, "Endpoint should work with /api/v1 prefix")
}

func TestDatabaseStatusIntegration(t *testing.T) {
	env := newTestEnv(t)

	w, response := env.do(t, http.MethodGet, "/api/v1/database/status", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	for _, table := range []string{"users", "orders", "payment_slips"} {
		assert.Contains(t, response["tables"], table)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/orders", "/api/v1/users/me", "/api/v1/admin/orders"} {
		w, _ := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestGzipCompression(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	reader, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Volunteer Hours API is running")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

// TestOrderLifecycleIntegration walks an order from registration to delivery
func TestOrderLifecycleIntegration(t *testing.T) {
	env := newTestEnv(t)

	// register and sign in a customer
	w, response := env.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":        "somchai@example.com",
		"password":     "secret1",
		"display_name": "Somchai",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	profile := response["data"].(map[string]interface{})
	assert.Equal(t, models.RoleUser, profile["role"])
	customerToken := env.login(t, "somchai@example.com", "secret1")

	// create a 20 hour order with the system add-on
	w, response = env.do(t, http.MethodPost, "/api/v1/orders", customerToken, gin.H{
		"full_name":      "Somchai Jaidee",
		"id_number":      "1234567890123",
		"connect_id":     "connect-1",
		"phone":          "0812345678",
		"type":           "hourly",
		"hours":          20,
		"include_system": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := response["data"].(map[string]interface{})
	orderID := order["id"].(string)
	assert.Equal(t, float64(170), order["amount"])
	assert.Equal(t, "pending", order["status"])
	assert.Empty(t, env.notifier.PaymentNotifications(), "no notification before a slip arrives")

	// attach the payment slip once
	w, response = env.upload(t, "/api/v1/orders/"+orderID+"/payment-slip", customerToken, "payment_slip", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, response["data"].(map[string]interface{})["payment_slip_url"])
	require.Len(t, env.notifier.PaymentNotifications(), 1)
	assert.Equal(t, 170, env.notifier.PaymentNotifications()[0].Amount)

	w, response = env.upload(t, "/api/v1/orders/"+orderID+"/payment-slip", customerToken, "payment_slip", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SLIP_ALREADY_ATTACHED", response["error"].(map[string]interface{})["code"])

	// a plain user cannot reach the admin routes
	w, _ = env.do(t, http.MethodGet, "/api/v1/admin/orders", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// promotion happens outside the API
	env.identity.AddUser("auth0|admin", "admin@example.com", "Admin", "adminpass")
	require.NoError(t, env.db.Create(&models.UserProfile{UID: "auth0|admin", Email: "admin@example.com", Role: models.RoleAdmin}).Error)
	adminToken := env.login(t, "admin@example.com", "adminpass")

	w, response = env.do(t, http.MethodGet, "/api/v1/admin/orders?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, response["data"], 1)

	w, response = env.do(t, http.MethodPatch, "/api/v1/admin/orders/"+orderID+"/status", adminToken, gin.H{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", response["data"].(map[string]interface{})["status"])

	// completed orders are locked for the owner
	w, response = env.do(t, http.MethodPut, "/api/v1/orders/"+orderID, customerToken, gin.H{"full_name": "Changed"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ORDER_COMPLETED", response["error"].(map[string]interface{})["code"])

	// but the download URL can still be delivered
	w, response = env.do(t, http.MethodPatch, "/api/v1/admin/orders/"+orderID+"/download-url", adminToken, gin.H{"download_url": "https://files.example.com/cert.pdf"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://files.example.com/cert.pdf", response["data"].(map[string]interface{})["download_url"])

	// the customer sees the delivered order
	w, response = env.do(t, http.MethodGet, "/api/v1/orders/"+orderID, customerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://files.example.com/cert.pdf", response["data"].(map[string]interface{})["download_url"])

	// the customer's slip shows up in the gallery
	w, response = env.do(t, http.MethodGet, "/api/v1/admin/payment-slips", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, response["data"], 1)
}

func TestSessionActivityIntegration(t *testing.T) {
	env := newTestEnv(t)
	env.identity.AddUser("auth0|u1", "u1@example.com", "U1", "password1")
	token := env.login(t, "u1@example.com", "password1")

	w, response := env.do(t, http.MethodPost, "/api/v1/session/activity", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	state := response["data"].(map[string]interface{})
	assert.Equal(t, true, state["tracked"])
	assert.InDelta(t, 3600, state["remaining_seconds"], 1)

	w, response = env.do(t, http.MethodGet, "/api/v1/session/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, response["data"].(map[string]interface{})["expired"])
}

func TestSessionStatusPollingDoesNotExtendSession(t *testing.T) {
	env := newTestEnv(t)
	now := env.pinClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	env.identity.AddUser("auth0|u1", "u1@example.com", "U1", "password1")
	token := env.login(t, "u1@example.com", "password1")

	w, _ := env.do(t, http.MethodPost, "/api/v1/session/activity", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	*now = now.Add(57 * time.Minute)
	w, response := env.do(t, http.MethodGet, "/api/v1/session/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	state := response["data"].(map[string]interface{})
	assert.Equal(t, true, state["warning"])
	assert.Equal(t, float64(180), state["remaining_seconds"])

	// a second poll still counts down from the last real activity
	w, response = env.do(t, http.MethodGet, "/api/v1/session/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(180), response["data"].(map[string]interface{})["remaining_seconds"])

	*now = now.Add(10 * time.Minute)
	w, response = env.do(t, http.MethodGet, "/api/v1/session/status", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assertErrorEnvelope(t, response, "SESSION_EXPIRED")
}

func TestAdminRequestsRecordActivity(t *testing.T) {
	env := newTestEnv(t)
	now := env.pinClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	env.identity.AddUser("auth0|admin", "admin@example.com", "Admin", "adminpass")
	require.NoError(t, env.db.Create(&models.UserProfile{UID: "auth0|admin", Email: "admin@example.com", Role: models.RoleAdmin}).Error)
	token := env.login(t, "admin@example.com", "adminpass")

	w, _ := env.do(t, http.MethodPost, "/api/v1/session/activity", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	*now = now.Add(50 * time.Minute)
	w, _ = env.do(t, http.MethodGet, "/api/v1/admin/orders", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	*now = now.Add(20 * time.Minute)
	w, response := env.do(t, http.MethodGet, "/api/v1/session/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	state := response["data"].(map[string]interface{})
	assert.Equal(t, false, state["expired"])
	assert.Equal(t, float64(40*60), state["remaining_seconds"])
}
