package model

import (
	"errors"

	"github.com/burugo/thing"
)

// Service is a user's configured instance of a recipe. ServiceID is the
// opaque identifier clients see; the relational primary key never leaves the
// server. All mutable client-visible state lives in the Settings blob.
type Service struct {
	thing.BaseModel
	UserID    int64  `db:"user_id" json:"userId"`
	ServiceID string `db:"service_id,unique" json:"id"`
	Name      string `db:"name" json:"name"`
	RecipeID  string `db:"recipe_id" json:"recipeId"`
	Settings  string `db:"settings" json:"-"`
}

func (s *Service) TableName() string {
	return "services"
}

var ServiceDB *thing.Thing[*Service]

func ServiceInit() error {
	var err error
	ServiceDB, err = thing.Use[*Service]()
	return err
}

func ServiceIDTaken(id string) (bool, error) {
	services, err := ServiceDB.Where("service_id = ?", id).Fetch(0, 1)
	if err != nil {
		return false, err
	}
	return len(services) > 0, nil
}

func GetServicesByUserID(userID int64) ([]*Service, error) {
	return ServiceDB.Where("user_id = ?", userID).Order("id ASC").All()
}

// GetServiceForUser looks a service up by its external id, scoped to the
// owning user so one user can never address another's services.
func GetServiceForUser(userID int64, serviceID string) (*Service, error) {
	services, err := ServiceDB.Where("service_id = ? AND user_id = ?", serviceID, userID).Fetch(0, 1)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		return nil, errors.New("service not found")
	}
	return services[0], nil
}

func (s *Service) Insert() error {
	return ServiceDB.Save(s)
}

func (s *Service) Update() error {
	return ServiceDB.Save(s)
}

func (s *Service) Delete() error {
	return ServiceDB.Delete(s)
}

func (s *Service) SettingsMap() map[string]any {
	return DecodeBlob(s.Settings)
}

func (s *Service) SetSettingsMap(m map[string]any) {
	s.Settings = EncodeBlob(m)
}

// serviceRenderDefaults are the built-in flags every rendered service starts
// from before the stored settings and any request overrides are layered on.
// hasCustomIcon is derived from the stored blob, which means a stored value
// can still override it; iconUrl cannot be overridden at all (see
// ApplyIconURL).
func serviceRenderDefaults(stored map[string]any) map[string]any {
	iconID, _ := stored["iconId"].(string)
	return map[string]any{
		"customRecipe":          false,
		"hasCustomIcon":         iconID != "",
		"isBadgeEnabled":        true,
		"isDarkModeEnabled":     "",
		"isEnabled":             true,
		"isMuted":               false,
		"isNotificationEnabled": true,
		"order":                 1,
		"spellcheckerLanguage":  "",
		"workspaces":            []any{},
	}
}

// Render reshapes the row plus its settings blob into the object the desktop
// client expects. Identity fields win over anything in the blob.
func (s *Service) Render(appURL string) map[string]any {
	stored := s.SettingsMap()
	merged := MergeSettings(serviceRenderDefaults(stored), stored)
	ApplyIconURL(merged, appURL)
	merged["id"] = s.ServiceID
	merged["name"] = s.Name
	merged["recipeId"] = s.RecipeID
	merged["userId"] = s.UserID
	return merged
}

// RenderWithOverrides is the update-path render: request overrides layer on
// top of the stored settings before the derived fields are applied.
func (s *Service) RenderWithOverrides(appURL string, overrides map[string]any) map[string]any {
	stored := s.SettingsMap()
	merged := MergeSettings(serviceRenderDefaults(stored), stored, overrides)
	ApplyIconURL(merged, appURL)
	merged["id"] = s.ServiceID
	merged["name"] = s.Name
	merged["recipeId"] = s.RecipeID
	merged["userId"] = s.UserID
	return merged
}
