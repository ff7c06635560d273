package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ferdi-server/backend/common"
	"ferdi-server/backend/library/franz"
	"ferdi-server/backend/model"

	"github.com/go-playground/validator/v10"
)

// Importer runs the one-shot migration of a Franz account into local
// storage. The flow is strictly sequential and deliberately has no rollback:
// a failure partway leaves everything written so far in place, and the
// failure text tells the user which step broke. Re-running after a partial
// failure needs a fresh email address.

type ImportConfig struct {
	ConnectWithFranz bool
	FranzAPIBase     string
}

type Importer struct {
	cfg      ImportConfig
	upstream *franz.Client
	validate *validator.Validate
}

func NewImporter(cfg ImportConfig) *Importer {
	return &Importer{
		cfg:      cfg,
		upstream: franz.NewClient(cfg.FranzAPIBase),
		validate: validator.New(),
	}
}

type ImportRequest struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

// ImportError carries the human-readable text rendered to the user. Step
// names the first flow stage that failed.
type ImportError struct {
	Step string
	Text string
	Err  error
}

func (e *ImportError) Error() string { return e.Text }
func (e *ImportError) Unwrap() error { return e.Err }

const (
	StepValidate   = "validate"
	StepLogin      = "login"
	StepProfile    = "profile"
	StepCreateUser = "create-user"
	StepServices   = "services"
	StepWorkspaces = "workspaces"
)

const (
	importedMessage = "Your account has been imported. You can now use your Franz account in Ferdi."

	notConnectedMessage = "Your account has been created but due to this server's configuration, we could not import your Franz account data.\n\n" +
		"If you are the server owner, please set CONNECT_WITH_FRANZ to true to enable account imports."
)

// Run executes the import and returns the success message shown to the user.
func (im *Importer) Run(ctx context.Context, req ImportRequest) (string, error) {
	if err := im.validateRequest(req); err != nil {
		return "", err
	}

	// The upstream API authenticates with a sha256 digest in place of the
	// plaintext password; the local record gets a bcrypt hash of the
	// plaintext as usual.
	digest := common.LegacyPasswordDigest(req.Password)

	if !im.cfg.ConnectWithFranz {
		user := &model.User{
			Email:    req.Email,
			Password: req.Password,
			Username: "Franz",
			Lastname: "Franz",
		}
		if err := user.Insert(); err != nil {
			return "", &ImportError{
				Step: StepCreateUser,
				Text: fmt.Sprintf("Could not create your user in our system.\nError: %v", err),
				Err:  err,
			}
		}
		return notConnectedMessage, nil
	}

	token, err := im.upstream.Login(ctx, req.Email, digest)
	if err != nil {
		return "", &ImportError{
			Step: StepLogin,
			Text: "Could not login into Franz with your supplied credentials. Please check and try again",
			Err:  err,
		}
	}

	profile, err := im.upstream.Me(ctx, token)
	if err != nil {
		return "", &ImportError{
			Step: StepProfile,
			Text: "Could not get your user info from Franz. Please check your credentials or try again later",
			Err:  err,
		}
	}

	user := &model.User{
		Email:    profile.Email,
		Password: req.Password,
		Username: profile.Firstname,
		Lastname: profile.Lastname,
	}
	if err := user.Insert(); err != nil {
		return "", &ImportError{
			Step: StepCreateUser,
			Text: fmt.Sprintf("Could not create your user in our system.\nError: %v", err),
			Err:  err,
		}
	}

	serviceIDTranslation, err := im.importServices(ctx, token, user)
	if err != nil {
		return "", err
	}

	if err := im.importWorkspaces(ctx, token, user, serviceIDTranslation); err != nil {
		return "", err
	}

	return importedMessage, nil
}

// validateRequest renders each violated field on its own line, matching the
// prose the import page shows.
func (im *Importer) validateRequest(req ImportRequest) error {
	var lines []string

	if err := im.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		for _, fieldErr := range validationErrors {
			field := strings.ToLower(fieldErr.Field())
			switch fieldErr.Tag() {
			case "required":
				lines = append(lines, fmt.Sprintf("- Please make sure to supply your %s", field))
			case "email":
				lines = append(lines, "- Please supply a valid email address")
			default:
				lines = append(lines, fmt.Sprintf("- Invalid value for %s", field))
			}
		}
	} else if model.IsEmailAlreadyTaken(req.Email) {
		lines = append(lines, "- There is already a user with this email.")
	}

	if len(lines) == 0 {
		return nil
	}
	text := "There was an error while trying to import your account:\n" + strings.Join(lines, "\n") + "\n"
	return &ImportError{Step: StepValidate, Text: text}
}

// importServices copies every upstream service into a local row, assigning a
// fresh external id and keeping the full remote object as the settings blob.
// The returned table maps upstream ids to the new local ids.
func (im *Importer) importServices(ctx context.Context, token string, user *model.User) (map[string]string, error) {
	remoteServices, err := im.upstream.Services(ctx, token)
	if err != nil {
		return nil, &ImportError{
			Step: StepServices,
			Text: fmt.Sprintf("Could not import your services into our system.\nError: %v", err),
			Err:  err,
		}
	}

	translation := make(map[string]string, len(remoteServices))
	for _, remote := range remoteServices {
		serviceID, err := model.NewServiceID()
		if err == nil {
			service := &model.Service{
				UserID:    user.ID,
				ServiceID: serviceID,
				Name:      remote.Name,
				RecipeID:  remote.RecipeID,
				Settings:  string(remote.Raw),
			}
			err = service.Insert()
		}
		if err != nil {
			return nil, &ImportError{
				Step: StepServices,
				Text: fmt.Sprintf("Could not import your services into our system.\nError: %v", err),
				Err:  err,
			}
		}
		translation[string(remote.ID)] = serviceID
	}
	return translation, nil
}

// importWorkspaces copies upstream workspaces, translating member service
// ids through the table built during the service import. Members with no
// local counterpart are dropped.
func (im *Importer) importWorkspaces(ctx context.Context, token string, user *model.User, translation map[string]string) error {
	remoteWorkspaces, err := im.upstream.Workspaces(ctx, token)
	if err != nil {
		return &ImportError{
			Step: StepWorkspaces,
			Text: fmt.Sprintf("Could not import your workspaces into our system.\nError: %v", err),
			Err:  err,
		}
	}

	for _, remote := range remoteWorkspaces {
		workspaceID, err := model.NewWorkspaceID()
		if err != nil {
			return &ImportError{
				Step: StepWorkspaces,
				Text: fmt.Sprintf("Could not import your workspaces into our system.\nError: %v", err),
				Err:  err,
			}
		}

		localServices := make([]string, 0, len(remote.Services))
		for _, remoteID := range remote.Services {
			if localID, ok := translation[string(remoteID)]; ok {
				localServices = append(localServices, localID)
			}
		}

		workspace := &model.Workspace{
			UserID:      user.ID,
			WorkspaceID: workspaceID,
			Name:        remote.Name,
			OrderNum:    remote.Order,
			Data:        "{}",
		}
		workspace.SetServiceIDs(localServices)
		if err := workspace.Insert(); err != nil {
			return &ImportError{
				Step: StepWorkspaces,
				Text: fmt.Sprintf("Could not import your workspaces into our system.\nError: %v", err),
				Err:  err,
			}
		}
	}
	return nil
}
