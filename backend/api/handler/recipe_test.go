package handler

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ferdi-server/backend/common"
	"ferdi-server/backend/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRecipeRouter() *gin.Engine {
	router := gin.New()
	v1 := router.Group("/v1")
	v1.GET("/recipes", ListRecipes)
	v1.GET("/recipes/search", SearchRecipes)
	v1.GET("/recipes/popular", PopularRecipes)
	v1.GET("/recipes/update", RecipesUpdate)
	v1.GET("/recipes/download/:recipe", DownloadRecipe)
	router.POST("/new", CreateRecipe)
	return router
}

func setupRecipeEnv(t *testing.T) func() {
	t.Helper()
	cleanupDB := setupHandlerTestDB(t)

	originalRecipePath := common.RecipePath
	originalConnect := common.ConnectWithFranz
	originalCreation := common.RecipeCreationEnabled
	common.RecipePath = t.TempDir()
	common.ConnectWithFranz = false
	common.RecipeCreationEnabled = true

	return func() {
		common.RecipePath = originalRecipePath
		common.ConnectWithFranz = originalConnect
		common.RecipeCreationEnabled = originalCreation
		cleanupDB()
	}
}

func newRecipeForm(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		assert.NoError(t, writer.WriteField(key, value))
	}
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		assert.NoError(t, err)
		_, err = part.Write([]byte(content))
		assert.NoError(t, err)
	}
	assert.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestCreateRecipeAndDownload(t *testing.T) {
	cleanup := setupRecipeEnv(t)
	defer cleanup()
	router := newRecipeRouter()

	body, contentType := newRecipeForm(t, map[string]string{
		"name":   "My Chat",
		"id":     "my-chat",
		"author": "dev@example.com",
		"svg":    "https://example.com/icon.svg",
	}, map[string]string{
		"package.json": `{"id":"my-chat"}`,
		"webview.js":   "// noop",
	})

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodPost, "/new", body)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "Created new recipe", recorder.Body.String())

	// The uploaded files landed flattened in the archive.
	archive, err := os.Open(filepath.Join(common.RecipePath, "my-chat.tar.gz"))
	assert.NoError(t, err)
	defer archive.Close()
	gzReader, err := gzip.NewReader(archive)
	assert.NoError(t, err)
	tarReader := tar.NewReader(gzReader)
	names := []string{}
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		assert.NoError(t, err)
		names = append(names, header.Name)
	}
	assert.ElementsMatch(t, []string{"package.json", "webview.js"}, names)

	// Download serves the local archive.
	recorder = httptest.NewRecorder()
	req, err = http.NewRequest(http.MethodGet, "/v1/recipes/download/my-chat", nil)
	assert.NoError(t, err)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Header().Get("Content-Disposition"), "my-chat.tar.gz")

	// And the reserved needle lists it.
	recorder = httptest.NewRecorder()
	req, err = http.NewRequest(http.MethodGet, "/v1/recipes/search?needle=ferdi%3Acustom", nil)
	assert.NoError(t, err)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	list := decodeList(t, recorder)
	assert.Len(t, list, 1)
	assert.Equal(t, "my-chat", list[0]["id"])
	assert.Equal(t, "dev@example.com", list[0]["author"])
}

func TestCreateRecipeRejectsDuplicateID(t *testing.T) {
	cleanup := setupRecipeEnv(t)
	defer cleanup()
	router := newRecipeRouter()

	recipe := &model.Recipe{RecipeID: "taken", Name: "Taken", Data: "{}"}
	assert.NoError(t, recipe.Insert())

	body, contentType := newRecipeForm(t, map[string]string{
		"name":   "Taken Again",
		"id":     "taken",
		"author": "dev@example.com",
		"svg":    "https://example.com/icon.svg",
	}, map[string]string{"package.json": "{}"})

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodPost, "/new", body)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "recipe-id-duplicate", decodeBody(t, recorder)["code"])
}

func TestCreateRecipeRejectsBadID(t *testing.T) {
	cleanup := setupRecipeEnv(t)
	defer cleanup()
	router := newRecipeRouter()

	body, contentType := newRecipeForm(t, map[string]string{
		"name":   "Escape",
		"id":     "../escape",
		"author": "dev@example.com",
		"svg":    "https://example.com/icon.svg",
	}, map[string]string{"package.json": "{}"})

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodPost, "/new", body)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Invalid recipe name")
}

func TestCreateRecipeRequiresSvgURL(t *testing.T) {
	cleanup := setupRecipeEnv(t)
	defer cleanup()
	router := newRecipeRouter()

	// Missing svg.
	body, contentType := newRecipeForm(t, map[string]string{
		"name":   "No Icon",
		"id":     "no-icon",
		"author": "dev@example.com",
	}, map[string]string{"package.json": "{}"})

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodPost, "/new", body)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	// svg that is not a URL.
	body, contentType = newRecipeForm(t, map[string]string{
		"name":   "Bad Icon",
		"id":     "bad-icon",
		"author": "dev@example.com",
		"svg":    "not a url",
	}, map[string]string{"package.json": "{}"})

	recorder = httptest.NewRecorder()
	req, err = http.NewRequest(http.MethodPost, "/new", body)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "svg must be a valid URL")
}

func TestCreateRecipeDisabled(t *testing.T) {
	cleanup := setupRecipeEnv(t)
	defer cleanup()
	router := newRecipeRouter()

	common.RecipeCreationEnabled = false

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodPost, "/new", nil)
	assert.NoError(t, err)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "doesn't allow the creation of new recipes")
}

func TestPopularRecipesFiltersFeatured(t *testing.T) {
	cleanup := setupRecipeEnv(t)
	defer cleanup()
	router := newRecipeRouter()

	featured := &model.Recipe{RecipeID: "starred", Name: "Starred", Data: `{"featured":true}`}
	assert.NoError(t, featured.Insert())
	plain := &model.Recipe{RecipeID: "plain", Name: "Plain", Data: `{"featured":false}`}
	assert.NoError(t, plain.Insert())

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/v1/recipes/popular", nil)
	assert.NoError(t, err)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	list := decodeList(t, recorder)
	assert.Len(t, list, 1)
	assert.Equal(t, "starred", list[0]["id"])
}

func TestRecipesUpdateIsAlwaysEmpty(t *testing.T) {
	router := newRecipeRouter()

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/v1/recipes/update", nil)
	assert.NoError(t, err)
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "[]", recorder.Body.String())
}
