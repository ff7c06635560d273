package handler

import (
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"ferdi-server/backend/common"
	ferdierrors "ferdi-server/backend/common/errors"
	"ferdi-server/backend/model"

	"github.com/gin-gonic/gin"
)

// CreateService creates a configured recipe instance for the caller. The
// full request body becomes the settings blob, so client-side fields this
// server knows nothing about survive the round trip.
func CreateService(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		common.RespError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	name, _ := data["name"].(string)
	recipeID, _ := data["recipeId"].(string)
	if name == "" || recipeID == "" {
		common.RespValidationErrors(c, []common.FieldError{
			{Field: "name", Message: "name is required", Validation: "required"},
			{Field: "recipeId", Message: "recipeId is required", Validation: "required"},
		})
		return
	}

	serviceID, err := model.NewServiceID()
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not allocate a service id")
		return
	}

	service := &model.Service{
		UserID:    user.ID,
		ServiceID: serviceID,
		Name:      name,
		RecipeID:  recipeID,
	}
	service.SetSettingsMap(data)
	if err := service.Insert(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not create service")
		return
	}

	body := model.MergeSettings(map[string]any{
		"userId":                user.ID,
		"id":                    serviceID,
		"isEnabled":             true,
		"isNotificationEnabled": true,
		"isBadgeEnabled":        true,
		"isMuted":               false,
		"isDarkModeEnabled":     "",
		"spellcheckerLanguage":  "",
		"order":                 1,
		"customRecipe":          false,
		"hasCustomIcon":         false,
		"workspaces":            []any{},
		"iconUrl":               nil,
	}, data)

	c.JSON(http.StatusOK, gin.H{
		"data":   body,
		"status": []string{"created"},
	})
}

// ListServices returns every service the caller owns, rendered for the
// client.
func ListServices(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	services, err := model.GetServicesByUserID(user.ID)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not list services")
		return
	}

	rendered := make([]map[string]any, 0, len(services))
	for _, service := range services {
		rendered = append(rendered, service.Render(common.AppURL))
	}
	c.JSON(http.StatusOK, rendered)
}

// EditService updates a service. A multipart request carrying an icon file
// replaces the icon; a JSON body is merged into the stored settings.
func EditService(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	serviceID := c.Param("id")

	service, err := model.GetServiceForUser(user.ID, serviceID)
	if err != nil {
		common.RespErrorCode(c, http.StatusNotFound, "Service not found", ferdierrors.ErrServiceNotFound)
		return
	}

	if icon, err := c.FormFile("icon"); err == nil {
		editServiceIcon(c, service, icon)
		return
	}

	var overrides map[string]any
	if err := c.ShouldBindJSON(&overrides); err != nil {
		common.RespError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if name, ok := overrides["name"].(string); ok && name != "" {
		service.Name = name
	}
	service.SetSettingsMap(model.MergeSettings(service.SettingsMap(), overrides))
	if err := service.Update(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not update service")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   service.Render(common.AppURL),
		"status": []string{"updated"},
	})
}

// editServiceIcon stores the uploaded icon under a fresh id and bumps the
// custom icon version. This is the only path that rewrites the settings
// blob wholesale.
func editServiceIcon(c *gin.Context, service *model.Service, icon *multipart.FileHeader) {
	ext := strings.ToLower(filepath.Ext(icon.Filename))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" && ext != ".gif" && ext != ".svg" && ext != ".webp" {
		common.RespError(c, http.StatusBadRequest, "Icon must be an image")
		return
	}
	if icon.Size > 2<<20 {
		common.RespError(c, http.StatusBadRequest, "Icon must be smaller than 2MB")
		return
	}

	if err := os.MkdirAll(common.UploadPath, 0o755); err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not store icon")
		return
	}

	var iconID string
	for {
		iconID = common.GetUUID() + common.GetUUID() + ext
		if _, err := os.Stat(filepath.Join(common.UploadPath, iconID)); os.IsNotExist(err) {
			break
		}
	}
	if err := c.SaveUploadedFile(icon, filepath.Join(common.UploadPath, iconID)); err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not store icon")
		return
	}

	settings := model.DecodeKnownSettings(service.Settings)
	settings.IconID = iconID
	settings.CustomIconVersion++

	blob, err := settings.MarshalJSON()
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not store icon")
		return
	}
	service.Settings = string(blob)
	if err := service.Update(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not update service")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   service.Render(common.AppURL),
		"status": []string{"updated"},
	})
}

// ReorderServices writes the posted {serviceId: order} map into each
// service's settings and answers with the full re-rendered list.
func ReorderServices(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var orders map[string]any
	if err := c.ShouldBindJSON(&orders); err != nil {
		common.RespError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	for serviceID, order := range orders {
		service, err := model.GetServiceForUser(user.ID, serviceID)
		if err != nil {
			continue
		}
		service.SetSettingsMap(model.MergeSettings(service.SettingsMap(), map[string]any{"order": order}))
		if err := service.Update(); err != nil {
			common.RespError(c, http.StatusInternalServerError, "Could not reorder services")
			return
		}
	}

	ListServices(c)
}

// DeleteService removes a service the caller owns.
func DeleteService(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	service, err := model.GetServiceForUser(user.ID, c.Param("id"))
	if err != nil {
		common.RespErrorCode(c, http.StatusNotFound, "Service not found", ferdierrors.ErrServiceNotFound)
		return
	}
	if err := service.Delete(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not delete service")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully deleted service",
		"status":  200,
	})
}

// ServiceIcon serves a previously uploaded custom icon. Icon ids are server
// generated but still validated: they become a path component.
func ServiceIcon(c *gin.Context) {
	iconID := c.Param("id")
	if iconID == "" || strings.Contains(iconID, "/") || strings.Contains(iconID, "..") {
		common.RespError(c, http.StatusBadRequest, "Invalid icon id")
		return
	}

	iconPath := filepath.Join(common.UploadPath, iconID)
	if _, err := os.Stat(iconPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "Icon doesn't exist"})
		return
	}
	c.File(iconPath)
}

// RecipesUpdate answers the client's recipe-update poll. A self-hosted
// server never pushes updates, so the list is always empty.
func RecipesUpdate(c *gin.Context) {
	c.JSON(http.StatusOK, []string{})
}
