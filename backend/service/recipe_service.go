package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ferdi-server/backend/library/franz"
	"ferdi-server/backend/model"
)

// CustomRecipeNeedle is the reserved search term the desktop client sends to
// list only this server's custom recipes.
const CustomRecipeNeedle = "ferdi:custom"

// RecipeDirectory merges the upstream public recipe catalog with the local
// custom recipe table.
type RecipeDirectory struct {
	cfg      DirectoryConfig
	upstream *franz.Client
}

type DirectoryConfig struct {
	ConnectWithFranz bool
	FranzAPIBase     string
	// RecipePath holds the locally archived custom recipe bundles,
	// addressed as {recipeId}.tar.gz.
	RecipePath string
}

func NewRecipeDirectory(cfg DirectoryConfig) *RecipeDirectory {
	return &RecipeDirectory{
		cfg:      cfg,
		upstream: franz.NewClient(cfg.FranzAPIBase),
	}
}

func localSummaries(recipes []*model.Recipe) []map[string]any {
	summaries := make([]map[string]any, 0, len(recipes))
	for _, recipe := range recipes {
		summaries = append(summaries, recipe.Summary())
	}
	return summaries
}

// List returns the upstream catalog followed by all local custom recipes.
// An upstream failure propagates: a listing with no catalog behind it has no
// useful degraded answer.
func (d *RecipeDirectory) List(ctx context.Context) ([]map[string]any, error) {
	var remote []map[string]any
	if d.cfg.ConnectWithFranz {
		var err error
		remote, err = d.upstream.Recipes(ctx)
		if err != nil {
			return nil, err
		}
	}

	local, err := model.AllRecipes()
	if err != nil {
		return nil, err
	}
	return append(remote, localSummaries(local)...), nil
}

// Search handles the reserved needle (local custom recipes only), otherwise
// local substring matches followed by upstream results when federated.
func (d *RecipeDirectory) Search(ctx context.Context, needle string) ([]map[string]any, error) {
	if needle == CustomRecipeNeedle {
		local, err := model.AllRecipes()
		if err != nil {
			return nil, err
		}
		return localSummaries(local), nil
	}

	local, err := model.SearchRecipesByName(needle)
	if err != nil {
		return nil, err
	}
	results := localSummaries(local)

	if d.cfg.ConnectWithFranz {
		remote, err := d.upstream.SearchRecipes(ctx, needle)
		if err != nil {
			return nil, err
		}
		results = append(results, remote...)
	}
	return results, nil
}

// ErrRecipeNotFound is returned by Download when the recipe is neither
// archived locally nor reachable upstream.
type ErrRecipeNotFound struct{ ID string }

func (e *ErrRecipeNotFound) Error() string {
	return fmt.Sprintf("recipe %q not found", e.ID)
}

// Download resolves a recipe bundle. Exactly one of archivePath and
// redirectURL is non-empty on success. The id is validated before any
// filesystem access since it becomes a path component.
func (d *RecipeDirectory) Download(recipeID string) (archivePath string, redirectURL string, err error) {
	if err := model.ValidateRecipeID(recipeID); err != nil {
		return "", "", err
	}

	path := filepath.Join(d.cfg.RecipePath, recipeID+".tar.gz")
	if _, err := os.Stat(path); err == nil {
		return path, "", nil
	}

	if d.cfg.ConnectWithFranz {
		return "", d.upstream.DownloadURL(recipeID), nil
	}
	return "", "", &ErrRecipeNotFound{ID: recipeID}
}
