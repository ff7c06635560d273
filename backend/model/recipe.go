package model

import (
	"errors"
	"strings"

	"github.com/burugo/thing"
)

// Recipe is a locally hosted custom recipe. Official recipes are never
// stored; they are fetched live from the upstream directory. RecipeID is
// user-chosen and doubles as the archive filename, hence the character
// restrictions in ValidateRecipeID.
type Recipe struct {
	thing.BaseModel
	RecipeID string `db:"recipe_id,unique" json:"id"`
	Name     string `db:"name" json:"name"`
	Data     string `db:"data" json:"-"`
}

func (r *Recipe) TableName() string {
	return "recipes"
}

var RecipeDB *thing.Thing[*Recipe]

func RecipeInit() error {
	var err error
	RecipeDB, err = thing.Use[*Recipe]()
	return err
}

// ValidateRecipeID rejects identifiers that could escape the recipe archive
// directory. Must be called before any filesystem or storage access.
func ValidateRecipeID(id string) error {
	if id == "" {
		return errors.New("recipe id is empty")
	}
	if strings.ContainsAny(id, "./") {
		return errors.New(`recipe id may not contain "." or "/"`)
	}
	return nil
}

func IsRecipeIDTaken(id string) bool {
	recipes, err := RecipeDB.Where("recipe_id = ?", id).Fetch(0, 1)
	return err == nil && len(recipes) > 0
}

func AllRecipes() ([]*Recipe, error) {
	return RecipeDB.Order("id ASC").All()
}

// SearchRecipesByName matches the needle as a case-sensitive substring of
// the display name.
func SearchRecipesByName(needle string) ([]*Recipe, error) {
	return RecipeDB.Where("name LIKE ?", "%"+needle+"%").Order("id ASC").All()
}

func (r *Recipe) Insert() error {
	return RecipeDB.Save(r)
}

func (r *Recipe) DataMap() map[string]any {
	return DecodeBlob(r.Data)
}

// Summary reshapes the row into the {id, name, ...data} object recipe
// listings and search results are built from.
func (r *Recipe) Summary() map[string]any {
	summary := r.DataMap()
	summary["id"] = r.RecipeID
	summary["name"] = r.Name
	return summary
}

// IsFeatured reports whether the recipe's data blob carries a true featured
// flag; used by the popular-recipes listing.
func (r *Recipe) IsFeatured() bool {
	featured, _ := r.DataMap()["featured"].(bool)
	return featured
}
