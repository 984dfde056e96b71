package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/queless/trinity-canteen-api/config"
	"github.com/queless/trinity-canteen-api/controllers"
	"github.com/queless/trinity-canteen-api/models"
	"github.com/queless/trinity-canteen-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OrderIntegrationTestSuite exercises the full ordering flow: placing orders,
// token numbering, session resets, serving and the now-serving pointer.
type OrderIntegrationTestSuite struct {
	suite.Suite
	router  *gin.Engine
	db      *gorm.DB
	student models.User
	admin   models.User
}

// SetupSuite runs once before all tests
func (suite *OrderIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	os.Setenv("GO_ENV", "test")
}

// SetupTest runs before each test: fresh database, fresh users, fresh router
func (suite *OrderIntegrationTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.NoError(err)

	err = db.AutoMigrate(
		&models.User{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.SessionCounter{},
		&models.CanteenStatus{},
		&models.NowServing{},
	)
	suite.NoError(err)

	suite.db = db
	config.SetDB(db)

	suite.student = models.User{Auth0ID: "auth0|student", Email: "student@trinity.edu", Role: "student"}
	suite.NoError(db.Create(&suite.student).Error)
	suite.admin = models.User{Auth0ID: "auth0|admin", Email: "canteen@trinity.edu", Role: "admin"}
	suite.NoError(db.Create(&suite.admin).Error)

	suite.router = suite.createRouter()
}

// createRouter wires the order routes twice, once per role, so tests can act
// as either principal without juggling tokens
func (suite *OrderIntegrationTestSuite) createRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	studentAuth := testutil.MockAuthMiddleware(suite.student.Auth0ID, "student", "student-token")
	adminAuth := testutil.MockAuthMiddleware(suite.admin.Auth0ID, "admin", "admin-token")

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", studentAuth, controllers.CreateOrder)
		v1.GET("/orders", studentAuth, controllers.ListOrders)
		v1.GET("/now-serving", studentAuth, controllers.GetNowServing)
		v1.GET("/status", studentAuth, controllers.GetStatus)

		admin := v1.Group("/admin-as")
		{
			admin.POST("/orders", adminAuth, controllers.CreateOrder)
			admin.GET("/orders", adminAuth, controllers.ListOrders)
			admin.POST("/orders/:id/serve", adminAuth, controllers.ServeOrder)
			admin.POST("/reset-tokens", adminAuth, controllers.ResetTokens)
			admin.PUT("/status", adminAuth, controllers.SetStatus)
		}
	}

	return router
}

// makeRequest is a helper to issue a JSON request against the suite router
func (suite *OrderIntegrationTestSuite) makeRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		bodyJSON, _ := json.Marshal(body)
		reader = bytes.NewReader(bodyJSON)
	} else {
		reader = bytes.NewReader([]byte{})
	}

	req, err := http.NewRequest(method, path, reader)
	suite.NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var responseData map[string]interface{}
	err = json.Unmarshal(w.Body.Bytes(), &responseData)
	suite.NoError(err)

	return w, responseData
}

func (suite *OrderIntegrationTestSuite) placeOrder(items []map[string]interface{}) map[string]interface{} {
	w, respData := suite.makeRequest("POST", "/api/v1/orders", map[string]interface{}{"items": items})
	suite.Equal(http.StatusCreated, w.Code, "order placement should succeed: %v", respData)
	return respData["data"].(map[string]interface{})
}

// TestPlaceOrder verifies a student order gets a token, the pending status
// and a copy of the chosen items
func (suite *OrderIntegrationTestSuite) TestPlaceOrder() {
	data := suite.placeOrder([]map[string]interface{}{
		{"name": "Tea", "qty": 2, "price": 10},
		{"name": "Samosa", "qty": 1, "price": 15},
	})

	assert.Equal(suite.T(), float64(1), data["token_number"])
	assert.Equal(suite.T(), "default", data["session_id"])
	assert.Equal(suite.T(), "pending", data["status"])
	assert.Equal(suite.T(), float64(suite.student.ID), data["student_id"])

	items := data["items"].([]interface{})
	assert.Len(suite.T(), items, 2)

	// The stored order carries price copies, so a later menu change cannot
	// alter what was billed
	var stored models.Order
	suite.NoError(suite.db.Preload("Items").First(&stored).Error)
	assert.Equal(suite.T(), 35, stored.Total())
}

// TestTokenNumbersAreSequential verifies consecutive orders get consecutive tokens
func (suite *OrderIntegrationTestSuite) TestTokenNumbersAreSequential() {
	for want := 1; want <= 5; want++ {
		data := suite.placeOrder([]map[string]interface{}{
			{"name": "Tea", "qty": 1, "price": 10},
		})
		assert.Equal(suite.T(), float64(want), data["token_number"])
	}
}

// TestAdminCannotPlaceOrder verifies only students order
func (suite *OrderIntegrationTestSuite) TestAdminCannotPlaceOrder() {
	w, respData := suite.makeRequest("POST", "/api/v1/admin-as/orders", map[string]interface{}{
		"items": []map[string]interface{}{{"name": "Tea", "qty": 1, "price": 10}},
	})

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
	errorObj := respData["error"].(map[string]interface{})
	assert.Equal(suite.T(), "FORBIDDEN", errorObj["code"])
}

// TestServeOrderMovesNowServing verifies serving an order flips its status
// and overwrites the now-serving pointer with that token
func (suite *OrderIntegrationTestSuite) TestServeOrderMovesNowServing() {
	first := suite.placeOrder([]map[string]interface{}{{"name": "Tea", "qty": 1, "price": 10}})
	second := suite.placeOrder([]map[string]interface{}{{"name": "Thali", "qty": 1, "price": 80}})

	// Serve the second order first; now-serving follows it even though the
	// first token is still pending
	secondID := int(second["id"].(float64))
	w, respData := suite.makeRequest("POST", fmt.Sprintf("/api/v1/admin-as/orders/%d/serve", secondID), nil)
	suite.Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(), "served", respData["data"].(map[string]interface{})["status"])

	w, respData = suite.makeRequest("GET", "/api/v1/now-serving", nil)
	suite.Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(), second["token_number"], respData["data"].(map[string]interface{})["current_token_number"])

	// The first order is untouched
	var stored models.Order
	suite.NoError(suite.db.First(&stored, int(first["id"].(float64))).Error)
	assert.Equal(suite.T(), "pending", stored.Status)
}

// TestResetStartsNewSession verifies a reset restarts numbering under a new
// session id and narrows the admin's default view, without touching orders
func (suite *OrderIntegrationTestSuite) TestResetStartsNewSession() {
	for i := 0; i < 3; i++ {
		suite.placeOrder([]map[string]interface{}{{"name": "Tea", "qty": 1, "price": 10}})
	}

	w, respData := suite.makeRequest("POST", "/api/v1/admin-as/reset-tokens", nil)
	suite.Equal(http.StatusOK, w.Code)
	newSession := respData["data"].(map[string]interface{})["session_id"].(string)
	assert.NotEqual(suite.T(), "default", newSession)

	fresh := suite.placeOrder([]map[string]interface{}{{"name": "Samosa", "qty": 1, "price": 15}})
	assert.Equal(suite.T(), float64(1), fresh["token_number"], "Numbering restarts after reset")
	assert.Equal(suite.T(), newSession, fresh["session_id"])

	// Default admin view covers only the active session
	w, respData = suite.makeRequest("GET", "/api/v1/admin-as/orders", nil)
	suite.Equal(http.StatusOK, w.Code)
	assert.Len(suite.T(), respData["data"].([]interface{}), 1)

	// The full history remains reachable
	w, respData = suite.makeRequest("GET", "/api/v1/admin-as/orders?all=true", nil)
	suite.Equal(http.StatusOK, w.Code)
	assert.Len(suite.T(), respData["data"].([]interface{}), 4)

	var count int64
	suite.db.Model(&models.Order{}).Count(&count)
	assert.Equal(suite.T(), int64(4), count, "Reset never deletes orders")
}

// TestStudentListSpansSessions verifies the student view ignores the session
// filter, a reset must not hide a student's own pending order
func (suite *OrderIntegrationTestSuite) TestStudentListSpansSessions() {
	suite.placeOrder([]map[string]interface{}{{"name": "Tea", "qty": 1, "price": 10}})

	w, _ := suite.makeRequest("POST", "/api/v1/admin-as/reset-tokens", nil)
	suite.Equal(http.StatusOK, w.Code)

	suite.placeOrder([]map[string]interface{}{{"name": "Samosa", "qty": 1, "price": 15}})

	w, respData := suite.makeRequest("GET", "/api/v1/orders", nil)
	suite.Equal(http.StatusOK, w.Code)
	assert.Len(suite.T(), respData["data"].([]interface{}), 2, "Students see all their orders across sessions")
}

// TestCanteenStatusLifecycle verifies the open/closed flag round-trips and
// that closing the canteen leaves the stored queue alone
func (suite *OrderIntegrationTestSuite) TestCanteenStatusLifecycle() {
	// Unset status reads closed
	w, respData := suite.makeRequest("GET", "/api/v1/status", nil)
	suite.Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(), false, respData["data"].(map[string]interface{})["is_open"])

	w, _ = suite.makeRequest("PUT", "/api/v1/admin-as/status", map[string]interface{}{"is_open": true})
	suite.Equal(http.StatusOK, w.Code)

	w, respData = suite.makeRequest("GET", "/api/v1/status", nil)
	suite.Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(), true, respData["data"].(map[string]interface{})["is_open"])

	suite.placeOrder([]map[string]interface{}{{"name": "Tea", "qty": 1, "price": 10}})

	w, _ = suite.makeRequest("PUT", "/api/v1/admin-as/status", map[string]interface{}{"is_open": false})
	suite.Equal(http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.Order{}).Count(&count)
	assert.Equal(suite.T(), int64(1), count, "Closing the canteen does not touch orders")
}

// TestOrderValidation verifies the reject paths for order placement
func (suite *OrderIntegrationTestSuite) TestOrderValidation() {
	testCases := []struct {
		name string
		body map[string]interface{}
	}{
		{"empty items", map[string]interface{}{"items": []map[string]interface{}{}}},
		{"all zero quantities", map[string]interface{}{"items": []map[string]interface{}{
			{"name": "Tea", "qty": 0, "price": 10},
		}}},
		{"missing items field", map[string]interface{}{}},
	}

	for _, tc := range testCases {
		suite.T().Run(tc.name, func(t *testing.T) {
			w, respData := suite.makeRequest("POST", "/api/v1/orders", tc.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			errorObj := respData["error"].(map[string]interface{})
			assert.Equal(t, "VALIDATION_ERROR", errorObj["code"])
		})
	}
}

// TestOrderIntegrationTestSuite runs the test suite
func TestOrderIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(OrderIntegrationTestSuite))
}
