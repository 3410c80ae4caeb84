package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/volunteer-hours-api/config"
	"github.com/kendall-kelly/volunteer-hours-api/controllers"
	"github.com/kendall-kelly/volunteer-hours-api/middleware"
	"github.com/kendall-kelly/volunteer-hours-api/models"
	"github.com/kendall-kelly/volunteer-hours-api/services"
	"github.com/kendall-kelly/volunteer-hours-api/tests/testutil"
	"github.com/kendall-kelly/volunteer-hours-api/utils"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// OrderAcceptanceTestSuite walks the customer and administrator journeys over
// HTTP. Bearer tokens are the ones the mock identity provider issues at login.
type OrderAcceptanceTestSuite struct {
	suite.Suite
	server   *httptest.Server
	db       *gorm.DB
	identity *services.MockIdentityGateway
	notifier *services.MockNotifier
}

// SetupSuite runs once before all tests
func (suite *OrderAcceptanceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(suite.T())
	suite.Require().NoError(utils.RegisterValidators())
}

// SetupTest gives every journey a fresh database and fresh collaborators
func (suite *OrderAcceptanceTestSuite) SetupTest() {
	testutil.RequireTestEnvironment(suite.T())
	config.SetConfig(&config.Config{GoEnv: "test"})

	suite.db = testutil.NewTestDB(suite.T())
	services.NewMockImageService().SetAsMockForTesting()
	suite.notifier = services.NewMockNotifier()
	suite.notifier.SetAsMockForTesting()
	suite.identity = services.NewMockIdentityGateway()
	suite.identity.SetAsMockForTesting()

	suite.server = httptest.NewServer(suite.createRouter())
}

// TearDownTest runs after each test
func (suite *OrderAcceptanceTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *OrderAcceptanceTestSuite) createRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	auth := suite.tokenAuth()
	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/register", controllers.Register)
		v1.POST("/auth/login", controllers.Login)
		v1.POST("/auth/password-reset", controllers.RequestPasswordReset)
		v1.GET("/auth/email-exists", controllers.CheckEmailExists)

		protected := v1.Group("")
		protected.Use(auth)
		{
			protected.GET("/users/me", controllers.GetMyProfile)
			protected.PUT("/users/me", controllers.UpdateMyProfile)
			protected.POST("/orders", controllers.CreateOrder)
			protected.POST("/orders/with-slip", controllers.CreateOrderWithSlip)
			protected.GET("/orders", controllers.GetMyOrders)
			protected.GET("/orders/:id", controllers.GetOrder)
			protected.PUT("/orders/:id", controllers.UpdateOrder)
		}

		admin := v1.Group("/admin")
		admin.Use(auth, middleware.RequireAdmin())
		{
			admin.GET("/orders", controllers.ListAllOrders)
			admin.PATCH("/orders/:id/status", controllers.UpdateOrderStatus)
		}
	}
	return router
}

// tokenAuth resolves the bearer token through the mock identity provider
func (suite *OrderAcceptanceTestSuite) tokenAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		info, err := suite.identity.GetUserInfo(c.Request.Context(), token)
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

func (suite *OrderAcceptanceTestSuite) do(method, path, token string, body io.Reader, contentType string) (int, map[string]interface{}) {
	req, err := http.NewRequest(method, suite.server.URL+path, body)
	suite.Require().NoError(err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	var response map[string]interface{}
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&response))
	return resp.StatusCode, response
}

func (suite *OrderAcceptanceTestSuite) doJSON(method, path, token string, body interface{}) (int, map[string]interface{}) {
	if body == nil {
		return suite.do(method, path, token, nil, "")
	}
	payload, err := json.Marshal(body)
	suite.Require().NoError(err)
	return suite.do(method, path, token, bytes.NewReader(payload), "application/json")
}

func dataOf(response map[string]interface{}) map[string]interface{} {
	d, _ := response["data"].(map[string]interface{})
	return d
}

// signUp registers an account and signs in, returning its uid and access token
func (suite *OrderAcceptanceTestSuite) signUp(email string) (string, string) {
	status, response := suite.doJSON(http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":    email,
		"password": "secret123",
	})
	suite.Require().Equal(http.StatusCreated, status)
	uid := dataOf(response)["uid"].(string)

	status, response = suite.doJSON(http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": "secret123",
	})
	suite.Require().Equal(http.StatusOK, status)
	return uid, dataOf(response)["access_token"].(string)
}

// TestCustomerJourney_Acceptance registers, orders with a slip and follows the order
func (suite *OrderAcceptanceTestSuite) TestCustomerJourney_Acceptance() {
	status, response := suite.doJSON(http.MethodGet, "/api/v1/auth/email-exists?email=somchai@example.com", "", nil)
	suite.Require().Equal(http.StatusOK, status)
	suite.Equal(false, dataOf(response)["exists"])

	_, token := suite.signUp("somchai@example.com")

	status, response = suite.doJSON(http.MethodGet, "/api/v1/auth/email-exists?email=somchai@example.com", "", nil)
	suite.Require().Equal(http.StatusOK, status)
	suite.Equal(true, dataOf(response)["exists"])

	status, response = suite.doJSON(http.MethodPut, "/api/v1/users/me", token, map[string]interface{}{
		"display_name": "Somchai",
		"phone":        "0812345678",
	})
	suite.Require().Equal(http.StatusOK, status)
	suite.Equal("Somchai", dataOf(response)["display_name"])

	body, contentType := testutil.MultipartImage(suite.T(), "payment_slip", "slip.png", testutil.PNGBytes, map[string]string{
		"full_name":      "Somchai Jaidee",
		"id_number":      "1234567890123",
		"connect_id":     "connect-42",
		"phone":          "0812345678",
		"type":           "hourly",
		"hours":          "12",
		"include_system": "true",
		"student_id":     "6401234",
	})
	status, response = suite.do(http.MethodPost, "/api/v1/orders/with-slip", token, body, contentType)
	suite.Require().Equal(http.StatusCreated, status)
	order := dataOf(response)
	suite.Equal(float64(12*7+50), order["amount"])
	suite.Equal("6401234", order["student_id"])
	suite.Len(suite.notifier.PaymentNotifications(), 1)

	orderID := order["id"].(string)
	status, response = suite.doJSON(http.MethodPut, "/api/v1/orders/"+orderID, token, map[string]interface{}{
		"student_id": "",
	})
	suite.Require().Equal(http.StatusOK, status)
	suite.Nil(dataOf(response)["student_id"])
	suite.Equal(float64(134), dataOf(response)["amount"], "editing contact fields never reprices")

	status, response = suite.doJSON(http.MethodGet, "/api/v1/orders", token, nil)
	suite.Require().Equal(http.StatusOK, status)
	suite.Len(response["data"], 1)
}

// TestAdministratorJourney_Acceptance promotes an account and processes the queue
func (suite *OrderAcceptanceTestSuite) TestAdministratorJourney_Acceptance() {
	_, customerToken := suite.signUp("customer@example.com")
	adminUID, adminToken := suite.signUp("admin@example.com")

	for _, hours := range []int{3, 20} {
		status, _ := suite.doJSON(http.MethodPost, "/api/v1/orders", customerToken, map[string]interface{}{
			"full_name":  "Somchai Jaidee",
			"id_number":  "1234567890123",
			"connect_id": "connect-42",
			"phone":      "0812345678",
			"type":       "hourly",
			"hours":      hours,
		})
		suite.Require().Equal(http.StatusCreated, status)
	}

	// not an admin yet
	status, _ := suite.doJSON(http.MethodGet, "/api/v1/admin/orders", adminToken, nil)
	suite.Equal(http.StatusForbidden, status)

	// promotion happens outside the API
	suite.Require().NoError(suite.db.Model(&models.UserProfile{}).Where("uid = ?", adminUID).Update("role", models.RoleAdmin).Error)

	status, response := suite.doJSON(http.MethodGet, "/api/v1/admin/orders?status=pending", adminToken, nil)
	suite.Require().Equal(http.StatusOK, status)
	queue := response["data"].([]interface{})
	suite.Require().Len(queue, 2)

	for _, item := range queue {
		id := item.(map[string]interface{})["id"].(string)
		status, _ = suite.doJSON(http.MethodPatch, "/api/v1/admin/orders/"+id+"/status", adminToken, map[string]interface{}{"status": "in_progress"})
		suite.Equal(http.StatusOK, status)
	}

	status, response = suite.doJSON(http.MethodGet, "/api/v1/admin/orders?status=pending", adminToken, nil)
	suite.Require().Equal(http.StatusOK, status)
	suite.Empty(response["data"])

	status, response = suite.doJSON(http.MethodGet, "/api/v1/admin/orders?status=in_progress", adminToken, nil)
	suite.Require().Equal(http.StatusOK, status)
	suite.Len(response["data"], 2)
}

// TestPasswordReset_Acceptance sends the reset email for any well-formed address
func (suite *OrderAcceptanceTestSuite) TestPasswordReset_Acceptance() {
	status, response := suite.doJSON(http.MethodPost, "/api/v1/auth/password-reset", "", map[string]interface{}{"email": "forgot@example.com"})
	suite.Require().Equal(http.StatusOK, status)
	suite.Equal(true, dataOf(response)["sent"])
	suite.Equal([]string{"forgot@example.com"}, suite.identity.PasswordResetsSent())
}

// TestUnauthenticatedAccess_Acceptance rejects unknown tokens on every protected route
func (suite *OrderAcceptanceTestSuite) TestUnauthenticatedAccess_Acceptance() {
	for _, path := range []string{"/api/v1/orders", "/api/v1/users/me", "/api/v1/admin/orders"} {
		suite.T().Run(path, func(t *testing.T) {
			status, response := suite.doJSON(http.MethodGet, path, "forged-token", nil)
			suite.Equal(http.StatusUnauthorized, status)
			suite.Equal(false, response["success"])
		})
	}
}

func TestOrderAcceptanceSuite(t *testing.T) {
	suite.Run(t, new(OrderAcceptanceTestSuite))
}
