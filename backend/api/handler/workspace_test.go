package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func createWorkspace(t *testing.T, router *gin.Engine, token string, name string) string {
	t.Helper()
	recorder := httptest.NewRecorder()
	req := newJSONRequest(t, http.MethodPost, "/v1/workspace", map[string]any{"name": name})
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	id, _ := body["id"].(string)
	assert.NotEmpty(t, id)
	return id
}

func TestWorkspaceLifecycle(t *testing.T) {
	cleanup := setupHandlerTestDB(t)
	defer cleanup()
	router := newTestRouter()
	token := signupUser(t, router, "ws@example.com")

	// Orders are assigned sequentially per user.
	recorder := httptest.NewRecorder()
	req := newJSONRequest(t, http.MethodPost, "/v1/workspace", map[string]any{"name": "Work"})
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	firstID, _ := body["id"].(string)
	assert.Equal(t, "Work", body["name"])
	assert.Equal(t, float64(0), body["order"])
	assert.Equal(t, []any{}, body["workspaces"])

	secondID := createWorkspace(t, router, token, "Personal")

	recorder = httptest.NewRecorder()
	listReq, err := http.NewRequest(http.MethodGet, "/v1/workspace", nil)
	assert.NoError(t, err)
	listReq.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, listReq)
	list := decodeList(t, recorder)
	assert.Len(t, list, 2)
	assert.Equal(t, firstID, list[0]["id"])
	assert.Equal(t, float64(0), list[0]["order"])
	assert.Equal(t, secondID, list[1]["id"])
	assert.Equal(t, float64(1), list[1]["order"])

	// Edit replaces name and members wholesale.
	recorder = httptest.NewRecorder()
	req = newJSONRequest(t, http.MethodPut, "/v1/workspace/"+firstID, map[string]any{
		"name":     "Deep Work",
		"services": []string{"svc-a", "svc-b"},
	})
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	body = decodeBody(t, recorder)
	assert.Equal(t, "Deep Work", body["name"])
	assert.Equal(t, []any{"svc-a", "svc-b"}, body["services"])

	// Delete.
	recorder = httptest.NewRecorder()
	delReq, err := http.NewRequest(http.MethodDelete, "/v1/workspace/"+secondID, nil)
	assert.NoError(t, err)
	delReq.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, delReq)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "Successfully deleted workspace", decodeBody(t, recorder)["message"])

	recorder = httptest.NewRecorder()
	listReq, err = http.NewRequest(http.MethodGet, "/v1/workspace", nil)
	assert.NoError(t, err)
	listReq.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, listReq)
	assert.Len(t, decodeList(t, recorder), 1)
}

func TestWorkspaceScopedToOwner(t *testing.T) {
	cleanup := setupHandlerTestDB(t)
	defer cleanup()
	router := newTestRouter()
	ownerToken := signupUser(t, router, "wsowner@example.com")
	otherToken := signupUser(t, router, "wsother@example.com")

	workspaceID := createWorkspace(t, router, ownerToken, "Mine")

	recorder := httptest.NewRecorder()
	req := newJSONRequest(t, http.MethodPut, "/v1/workspace/"+workspaceID, map[string]any{
		"name":     "Yours Now",
		"services": []string{},
	})
	req.Header.Set("Authorization", "Bearer "+otherToken)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "workspace-not-found", decodeBody(t, recorder)["code"])

	recorder = httptest.NewRecorder()
	delReq, err := http.NewRequest(http.MethodDelete, "/v1/workspace/"+workspaceID, nil)
	assert.NoError(t, err)
	delReq.Header.Set("Authorization", "Bearer "+otherToken)
	router.ServeHTTP(recorder, delReq)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCreateWorkspaceValidation(t *testing.T) {
	cleanup := setupHandlerTestDB(t)
	defer cleanup()
	router := newTestRouter()
	token := signupUser(t, router, "wsvalid@example.com")

	recorder := httptest.NewRecorder()
	req := newJSONRequest(t, http.MethodPost, "/v1/workspace", map[string]any{})
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
