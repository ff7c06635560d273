package handler

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"ferdi-server/backend/common"
	ferdierrors "ferdi-server/backend/common/errors"
	"ferdi-server/backend/model"
	"ferdi-server/backend/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// The Franz client treats the profile id as opaque and stable; a self-hosted
// single-tenant-per-account server can hand out a constant.
const profileID = "82c1cf9d-ab58-4da2-b55e-aaa41d2142d8"

var validate = validator.New()

// currentUser loads the authenticated user set by the JWT middleware.
func currentUser(c *gin.Context) (*model.User, bool) {
	userID := c.GetInt64("user_id")
	user, err := model.GetUserById(userID)
	if err != nil {
		common.RespErrorCode(c, http.StatusUnauthorized, "Missing or invalid api token", ferdierrors.ErrUnauthenticated)
		return nil, false
	}
	return user, true
}

func validationFieldErrors(err error) []common.FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []common.FieldError{{Field: "", Message: err.Error(), Validation: "invalid"}}
	}
	fieldErrors := make([]common.FieldError, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		field := strings.ToLower(fieldErr.Field())
		message := field + " is invalid"
		if fieldErr.Tag() == "required" {
			message = field + " is required"
		}
		fieldErrors = append(fieldErrors, common.FieldError{
			Field:      field,
			Message:    message,
			Validation: fieldErr.Tag(),
		})
	}
	return fieldErrors
}

type signupPayload struct {
	Firstname string `json:"firstname" validate:"required"`
	Lastname  string `json:"lastname" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

// Signup registers a new account and hands back a bearer token.
func Signup(c *gin.Context) {
	if !common.RegistrationEnabled {
		common.RespErrorCode(c, http.StatusUnauthorized, "Registration is disabled on this server", ferdierrors.ErrRegistrationClosed)
		return
	}

	var payload signupPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.RespError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.RespValidationErrors(c, validationFieldErrors(err))
		return
	}
	if model.IsEmailAlreadyTaken(payload.Email) {
		common.RespErrorCode(c, http.StatusUnauthorized, "E-Mail Address already in use", ferdierrors.ErrEmailTaken)
		return
	}

	user := &model.User{
		Email:    payload.Email,
		Password: payload.Password,
		Username: payload.Firstname,
		Lastname: payload.Lastname,
	}
	if err := user.Insert(); err != nil {
		// The unique index is the source of truth for email uniqueness;
		// the pre-check above only catches the easy case.
		common.RespErrorCode(c, http.StatusUnauthorized, "E-Mail Address already in use", ferdierrors.ErrEmailTaken)
		return
	}

	token, err := service.GenerateToken(user)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not generate a token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully created account",
		"token":   token,
	})
}

// Login authenticates with the Basic credentials the desktop client sends
// and answers with a bearer token.
func Login(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		common.RespError(c, http.StatusUnauthorized, "Please provide authorization")
		return
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(authHeader, "Basic "))
	if err != nil {
		common.RespErrorCode(c, http.StatusUnauthorized, "User credentials not valid", ferdierrors.ErrInvalidCredentials)
		return
	}
	email, password, found := strings.Cut(string(decoded), ":")
	if !found {
		common.RespErrorCode(c, http.StatusUnauthorized, "User credentials not valid", ferdierrors.ErrInvalidCredentials)
		return
	}

	user := &model.User{Email: email}
	if err := user.FillUserByEmail(); err != nil {
		common.RespErrorCode(c, http.StatusUnauthorized, "User credentials not valid (Invalid mail)", ferdierrors.ErrInvalidCredentials)
		return
	}

	user.Password = password
	if err := user.ValidateAndFill(); err != nil {
		common.RespErrorCode(c, http.StatusUnauthorized, "User credentials not valid", ferdierrors.ErrInvalidCredentials)
		return
	}

	token, err := service.GenerateToken(user)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not generate a token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully logged in",
		"token":   token,
	})
}

// profileBody builds the canned profile the client expects, with the user's
// stored settings overlaid.
func profileBody(user *model.User) map[string]any {
	body := map[string]any{
		"accountType":         "individual",
		"beta":                false,
		"donor":               map[string]any{},
		"email":               user.Email,
		"emailValidated":      true,
		"features":            map[string]any{},
		"firstname":           user.Username,
		"id":                  profileID,
		"isPremium":           true,
		"isSubscriptionOwner": true,
		"lastname":            user.Lastname,
		"locale":              "en-US",
	}
	return model.MergeSettings(body, user.SettingsMap())
}

// Me returns the authenticated user's profile.
func Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, profileBody(user))
}

// UpdateMe merges the request body into the stored profile settings.
func UpdateMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var overrides map[string]any
	if err := c.ShouldBindJSON(&overrides); err != nil {
		common.RespError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user.SetSettingsMap(model.MergeSettings(user.SettingsMap(), overrides))
	if err := user.Update(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "Could not update settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   profileBody(user),
		"status": []string{"data-updated"},
	})
}

// Import runs the Franz account import. The response is prose rendered for
// a human on the import page, not a machine-readable object.
func Import(c *gin.Context) {
	if !common.RegistrationEnabled {
		common.RespErrorCode(c, http.StatusUnauthorized, "Registration is disabled on this server", ferdierrors.ErrRegistrationClosed)
		return
	}

	req := service.ImportRequest{
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
	}
	if req.Email == "" && req.Password == "" {
		// The import page posts a form; fall back to JSON for API use.
		_ = c.ShouldBindJSON(&req)
	}

	importer := service.NewImporter(service.ImportConfig{
		ConnectWithFranz: common.ConnectWithFranz,
		FranzAPIBase:     common.FranzAPIBase,
	})

	message, err := importer.Run(c.Request.Context(), req)
	if err != nil {
		var importErr *service.ImportError
		if errors.As(err, &importErr) {
			status := http.StatusUnauthorized
			if importErr.Step == service.StepValidate {
				status = http.StatusBadRequest
			}
			common.RespText(c, status, importErr.Text)
			return
		}
		common.RespError(c, http.StatusInternalServerError, "Import failed")
		return
	}
	common.RespText(c, http.StatusOK, message)
}
