package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/volunteer-hours-api/config"
	"github.com/kendall-kelly/volunteer-hours-api/tests/testutil"
	"github.com/kendall-kelly/volunteer-hours-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHandler(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "Response should be valid JSON")
	return w, response
}

// TestHealthCheck is a unit test for the healthCheck handler function
func TestHealthCheck(t *testing.T) {
	w, response := serveHandler(t, healthCheck)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Len(t, response, 2)
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Volunteer Hours API is running", response["message"])
}

func TestDatabaseStatus_ListsDomainTables(t *testing.T) {
	testutil.NewTestDB(t)

	w, response := serveHandler(t, databaseStatus)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, response["success"])
	tables, ok := response["tables"].([]interface{})
	require.True(t, ok, "tables should be a list")
	assert.Subset(t, tables, []interface{}{"orders", "payment_slips", "users"})
}

func TestDatabaseStatus_Failures(t *testing.T) {
	previous := config.GetDB()
	t.Cleanup(func() { config.SetDB(previous) })

	t.Run("not connected", func(t *testing.T) {
		config.SetDB(nil)

		w, response := serveHandler(t, databaseStatus)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assertErrorEnvelope(t, response, "DATABASE_ERROR")
	})

	t.Run("connection closed", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		w, response := serveHandler(t, databaseStatus)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assertErrorEnvelope(t, response, "DATABASE_ERROR")
	})
}

// assertErrorEnvelope checks the failure shape every endpoint shares
func assertErrorEnvelope(t *testing.T, response map[string]interface{}, code string) {
	t.Helper()

	assert.Equal(t, false, response["success"])
	errBody, ok := response["error"].(map[string]interface{})
	require.True(t, ok, "error should be an object")
	assert.Equal(t, code, errBody["code"])
	assert.Equal(t, utils.LocalizedMessage(code), errBody["message"])
}
