package handler

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"ferdi-server/backend/common"
	ferdierrors "ferdi-server/backend/common/errors"
	"ferdi-server/backend/model"
	"ferdi-server/backend/service"

	"github.com/gin-gonic/gin"
)

func recipeDirectory() *service.RecipeDirectory {
	return service.NewRecipeDirectory(service.DirectoryConfig{
		ConnectWithFranz: common.ConnectWithFranz,
		FranzAPIBase:     common.FranzAPIBase,
		RecipePath:       common.RecipePath,
	})
}

// ListRecipes returns the upstream catalog plus local custom recipes. An
// upstream failure is answered as a gateway error: there is no useful
// degraded listing.
func ListRecipes(c *gin.Context) {
	recipes, err := recipeDirectory().List(c.Request.Context())
	if err != nil {
		common.RespErrorCode(c, http.StatusBadGateway, "Could not reach the recipe directory", ferdierrors.ErrUpstreamUnavailable)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// SearchRecipes searches local custom recipes and, when federated, the
// upstream directory.
func SearchRecipes(c *gin.Context) {
	needle := c.Query("needle")
	if needle == "" {
		common.RespValidationErrors(c, []common.FieldError{
			{Field: "needle", Message: "needle is required", Validation: "required"},
		})
		return
	}

	results, err := recipeDirectory().Search(c.Request.Context(), needle)
	if err != nil {
		common.RespErrorCode(c, http.StatusBadGateway, "Could not reach the recipe directory", ferdierrors.ErrUpstreamUnavailable)
		return
	}
	c.JSON(http.StatusOK, results)
}

// DownloadRecipe serves a locally archived recipe bundle or redirects to the
// upstream download.
func DownloadRecipe(c *gin.Context) {
	recipeID := c.Param("recipe")
	if err := model.ValidateRecipeID(recipeID); err != nil {
		common.RespErrorCode(c, http.StatusBadRequest, "Invalid recipe name", ferdierrors.ErrInvalidRecipeID)
		return
	}

	archivePath, redirectURL, err := recipeDirectory().Download(recipeID)
	if err != nil {
		var notFound *service.ErrRecipeNotFound
		if errors.As(err, &notFound) {
			common.RespErrorCode(c, http.StatusBadRequest, "Recipe not found", ferdierrors.ErrRecipeNotFound)
			return
		}
		common.RespErrorCode(c, http.StatusBadRequest, "Invalid recipe name", ferdierrors.ErrInvalidRecipeID)
		return
	}
	if redirectURL != "" {
		c.Redirect(http.StatusFound, redirectURL)
		return
	}
	c.FileAttachment(archivePath, recipeID+".tar.gz")
}

// PopularRecipes lists the local custom recipes flagged as featured.
func PopularRecipes(c *gin.Context) {
	recipes, err := model.AllRecipes()
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not list recipes")
		return
	}

	featured := make([]map[string]any, 0)
	for _, recipe := range recipes {
		if recipe.IsFeatured() {
			featured = append(featured, recipe.Summary())
		}
	}
	c.JSON(http.StatusOK, featured)
}

// CreateRecipe registers a custom recipe from the new-recipe page: metadata
// into the recipes table, uploaded files into a {id}.tar.gz bundle.
func CreateRecipe(c *gin.Context) {
	if !common.RecipeCreationEnabled {
		common.RespText(c, http.StatusOK, "This server doesn't allow the creation of new recipes.")
		return
	}

	name := c.PostForm("name")
	recipeID := c.PostForm("id")
	author := c.PostForm("author")
	svg := c.PostForm("svg")
	if name == "" || recipeID == "" || author == "" || svg == "" {
		common.RespValidationErrors(c, []common.FieldError{
			{Field: "name", Message: "name is required", Validation: "required"},
			{Field: "id", Message: "id is required", Validation: "required"},
			{Field: "author", Message: "author is required", Validation: "required"},
			{Field: "svg", Message: "svg is required", Validation: "required"},
		})
		return
	}
	if err := validate.Var(svg, "url"); err != nil {
		common.RespValidationErrors(c, []common.FieldError{
			{Field: "svg", Message: "svg must be a valid URL", Validation: "url"},
		})
		return
	}
	if err := model.ValidateRecipeID(recipeID); err != nil {
		common.RespText(c, http.StatusBadRequest, `Invalid recipe name. Your recipe name may not contain "." or "/"`)
		return
	}
	if model.IsRecipeIDTaken(recipeID) {
		common.RespErrorCode(c, http.StatusBadRequest, "A recipe with this ID already exists", ferdierrors.ErrRecipeIDTaken)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		common.RespError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		common.RespValidationErrors(c, []common.FieldError{
			{Field: "files", Message: "files is required", Validation: "required"},
		})
		return
	}

	if err := archiveRecipeFiles(files, filepath.Join(common.RecipePath, recipeID+".tar.gz")); err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not archive recipe files")
		return
	}

	recipe := &model.Recipe{
		RecipeID: recipeID,
		Name:     name,
		Data: model.EncodeBlob(map[string]any{
			"author":   author,
			"featured": false,
			"version":  "1.0.0",
			"icons": map[string]any{
				"svg": svg,
			},
		}),
	}
	if err := recipe.Insert(); err != nil {
		common.RespErrorCode(c, http.StatusBadRequest, "A recipe with this ID already exists", ferdierrors.ErrRecipeIDTaken)
		return
	}

	common.RespText(c, http.StatusOK, "Created new recipe")
}

// archiveRecipeFiles writes the uploaded files into a flat tar.gz bundle.
// Upload filenames are flattened to their base name so a crafted filename
// cannot place entries outside the archive root.
func archiveRecipeFiles(files []*multipart.FileHeader, destination string) error {
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}
	out, err := os.Create(destination)
	if err != nil {
		return err
	}
	defer out.Close()

	gzWriter := gzip.NewWriter(out)
	defer gzWriter.Close()
	tarWriter := tar.NewWriter(gzWriter)
	defer tarWriter.Close()

	for _, file := range files {
		src, err := file.Open()
		if err != nil {
			return err
		}
		header := &tar.Header{
			Name: filepath.Base(file.Filename),
			Mode: 0o644,
			Size: file.Size,
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			src.Close()
			return err
		}
		if _, err := io.Copy(tarWriter, src); err != nil {
			src.Close()
			return err
		}
		src.Close()
	}
	return nil
}
