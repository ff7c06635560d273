package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"ferdi-server/backend/api/middleware"
	"ferdi-server/backend/common"
	"ferdi-server/backend/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
	common.JWTSecret = "test-jwt-secret-key-for-handler-tests"
	common.RegistrationEnabled = true
	common.AppURL = "http://localhost:3000"
}

func setupHandlerTestDB(t *testing.T) func() {
	t.Helper()
	originalSQLitePath := common.SQLitePath
	common.SQLitePath = filepath.Join(t.TempDir(), "handler_test.db")

	err := model.InitDB()
	assert.NoError(t, err)

	return func() {
		common.SQLitePath = originalSQLitePath
	}
}

// newTestRouter wires the authed API surface the way the real router does,
// minus rate limiting.
func newTestRouter() *gin.Engine {
	router := gin.New()
	v1 := router.Group("/v1")
	v1.POST("/auth/signup", Signup)
	v1.POST("/auth/login", Login)
	v1.GET("/icon/:id", ServiceIcon)

	authed := v1.Group("")
	authed.Use(middleware.JWTAuth())
	authed.GET("/me", Me)
	authed.PUT("/me", UpdateMe)
	authed.POST("/service", CreateService)
	authed.GET("/me/services", ListServices)
	authed.PUT("/service/reorder", ReorderServices)
	authed.PUT("/service/:id", EditService)
	authed.DELETE("/service/:id", DeleteService)
	authed.POST("/workspace", CreateWorkspace)
	authed.GET("/workspace", ListWorkspaces)
	authed.PUT("/workspace/:id", EditWorkspace)
	authed.DELETE("/workspace/:id", DeleteWorkspace)
	return router
}

func newJSONRequest(t *testing.T, method string, path string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	assert.NoError(t, err)
	req, err := http.NewRequest(method, path, bytes.NewBuffer(body))
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	err := json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.NoError(t, err)
	return body
}

func decodeList(t *testing.T, recorder *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var list []map[string]any
	err := json.Unmarshal(recorder.Body.Bytes(), &list)
	assert.NoError(t, err)
	return list
}

// signupUser registers an account and returns its bearer token.
func signupUser(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, newJSONRequest(t, http.MethodPost, "/v1/auth/signup", map[string]string{
		"firstname": "Test",
		"lastname":  "User",
		"email":     email,
		"password":  "hunter22",
	}))
	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

func TestSignupAndLogin(t *testing.T) {
	cleanup := setupHandlerTestDB(t)
	defer cleanup()
	router := newTestRouter()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, newJSONRequest(t, http.MethodPost, "/v1/auth/signup", map[string]string{
		"firstname": "Ada",
		"lastname":  "Lovelace",
		"email":     "ada@example.com",
		"password":  "hunter22",
	}))
	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "Successfully created account", body["message"])
	assert.NotEmpty(t, body["token"])

	// Duplicate email is rejected.
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, newJSONRequest(t, http.MethodPost, "/v1/auth/signup", map[string]string{
		"firstname": "Ada",
		"lastname":  "Lovelace",
		"email":     "ada@example.com",
		"password":  "other",
	}))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	body = decodeBody(t, recorder)
	assert.Equal(t, "email-duplicate", body["code"])

	// Login with the Basic scheme the desktop client uses.
	recorder = httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("ada@example.com:hunter22")))
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	body = decodeBody(t, recorder)
	assert.Equal(t, "Successfully logged in", body["message"])
	assert.NotEmpty(t, body["token"])

	// Wrong password.
	recorder = httptest.NewRecorder()
	req, err = http.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("ada@example.com:wrong")))
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	body = decodeBody(t, recorder)
	assert.Equal(t, "invalid-credentials", body["code"])
}

func TestSignupValidation(t *testing.T) {
	cleanup := setupHandlerTestDB(t)
	defer cleanup()
	router := newTestRouter()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, newJSONRequest(t, http.MethodPost, "/v1/auth/signup", map[string]string{
		"firstname": "NoMail",
	}))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var fieldErrors []map[string]any
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &fieldErrors))
	assert.NotEmpty(t, fieldErrors)
}

func TestSignupDisabled(t *testing.T) {
	cleanup := setupHandlerTestDB(t)
	defer cleanup()
	router := newTestRouter()

	common.RegistrationEnabled = false
	defer func() { common.RegistrationEnabled = true }()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, newJSONRequest(t, http.MethodPost, "/v1/auth/signup", map[string]string{
		"firstname": "Ada",
		"lastname":  "Lovelace",
		"email":     "ada@example.com",
		"password":  "hunter22",
	}))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "registration-disabled", body["code"])
}

func TestMeRequiresToken(t *testing.T) {
	cleanup := setupHandlerTestDB(t)
	defer cleanup()
	router := newTestRouter()

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/v1/me", nil)
	assert.NoError(t, err)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "Missing or invalid api token", body["message"])

	recorder = httptest.NewRecorder()
	req, err = http.NewRequest(http.MethodGet, "/v1/me", nil)
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Bearer garbage")
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestMeAndUpdateMe(t *testing.T) {
	cleanup := setupHandlerTestDB(t)
	defer cleanup()
	router := newTestRouter()
	token := signupUser(t, router, "me@example.com")

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/v1/me", nil)
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "me@example.com", body["email"])
	assert.Equal(t, "Test", body["firstname"])
	assert.Equal(t, profileID, body["id"])
	assert.Equal(t, true, body["isPremium"])

	// Settings posted to PUT /me survive into subsequent reads.
	recorder = httptest.NewRecorder()
	req = newJSONRequest(t, http.MethodPut, "/v1/me", map[string]any{"locale": "de-DE"})
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	body = decodeBody(t, recorder)
	data, _ := body["data"].(map[string]any)
	assert.Equal(t, "de-DE", data["locale"])
	assert.Equal(t, []any{"data-updated"}, body["status"])

	recorder = httptest.NewRecorder()
	req, err = http.NewRequest(http.MethodGet, "/v1/me", nil)
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, req)
	body = decodeBody(t, recorder)
	assert.Equal(t, "de-DE", body["locale"])
}
