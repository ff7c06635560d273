package handler

import (
	"net/http"

	"ferdi-server/backend/common"
	ferdierrors "ferdi-server/backend/common/errors"
	"ferdi-server/backend/model"

	"github.com/gin-gonic/gin"
)

type workspacePayload struct {
	Name     string   `json:"name"`
	Services []string `json:"services"`
}

// CreateWorkspace creates an empty named workspace for the caller.
func CreateWorkspace(c *gin.Context) {
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
	if name == "" {
		common.RespValidationErrors(c, []common.FieldError{
			{Field: "name", Message: "name is required", Validation: "required"},
		})
		return
	}

	workspaceID, err := model.NewWorkspaceID()
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not allocate a workspace id")
		return
	}
	order, err := model.NextWorkspaceOrder(user.ID)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not create workspace")
		return
	}

	workspace := &model.Workspace{
		UserID:      user.ID,
		WorkspaceID: workspaceID,
		Name:        name,
		OrderNum:    order,
		Data:        model.EncodeBlob(data),
	}
	workspace.SetServiceIDs([]string{})
	if err := workspace.Insert(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not create workspace")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":     user.ID,
		"name":       name,
		"id":         workspaceID,
		"order":      order,
		"workspaces": []any{},
	})
}

// EditWorkspace replaces a workspace's name and member list.
func EditWorkspace(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var payload workspacePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.Name == "" || payload.Services == nil {
		common.RespValidationErrors(c, []common.FieldError{
			{Field: "name", Message: "name is required", Validation: "required"},
			{Field: "services", Message: "services is required", Validation: "required"},
		})
		return
	}

	workspace, err := model.GetWorkspaceForUser(user.ID, c.Param("id"))
	if err != nil {
		common.RespErrorCode(c, http.StatusNotFound, "Workspace not found", ferdierrors.ErrWorkspaceNotFound)
		return
	}

	workspace.Name = payload.Name
	workspace.SetServiceIDs(payload.Services)
	if err := workspace.Update(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not update workspace")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       workspace.WorkspaceID,
		"name":     workspace.Name,
		"order":    workspace.OrderNum,
		"services": payload.Services,
		"userId":   user.ID,
	})
}

// DeleteWorkspace removes a workspace the caller owns.
func DeleteWorkspace(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	workspace, err := model.GetWorkspaceForUser(user.ID, c.Param("id"))
	if err != nil {
		common.RespErrorCode(c, http.StatusNotFound, "Workspace not found", ferdierrors.ErrWorkspaceNotFound)
		return
	}
	if err := workspace.Delete(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not delete workspace")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully deleted workspace",
	})
}

// ListWorkspaces returns every workspace the caller owns.
func ListWorkspaces(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	workspaces, err := model.GetWorkspacesByUserID(user.ID)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not list workspaces")
		return
	}

	rendered := make([]model.WorkspaceRender, 0, len(workspaces))
	for _, workspace := range workspaces {
		rendered = append(rendered, workspace.Render())
	}
	c.JSON(http.StatusOK, rendered)
}
