// Handlers for routes with canned responses. The desktop client polls these
// endpoints; a self-hosted server answers with everything unlocked.
package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"ferdi-server/backend/common"

	"github.com/gin-gonic/gin"
)

// Features enables every client feature.
func Features(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"needToWaitToProceed":                    false,
		"isSpellcheckerPremiumFeature":           false,
		"isSpellcheckerIncludedInCurrentPlan":    true,
		"isServiceProxyEnabled":                  true,
		"isServiceProxyIncludedInCurrentPlan":    true,
		"isServiceProxyPremiumFeature":           true,
		"isWorkspacePremiumFeature":              false,
		"isWorkspaceEnabled":                     true,
		"isAnnouncementsEnabled":                 true,
		"isSettingsWSEnabled":                    false,
		"isServiceLimitEnabled":                  false,
		"serviceLimitCount":                      0,
		"isCommunityRecipesPremiumFeature":       false,
		"isCommunityRecipesIncludedInCurrentPlan": true,
		"isCustomUrlIncludedInCurrentPlan":       true,
		"isMagicBarEnabled":                      true,
		"isTeamManagementIncludedInCurrentPlan":  true,
		"isTodosEnabled":                         true,
		"isTodosIncludedInCurrentPlan":           true,
		"defaultTrialPlan":                       "franz-pro-yearly",
		"subscribeURL":                           "https://getferdi.com",
		"planSelectionURL":                       "https://getferdi.com",
		"hasInlineCheckout":                      true,
		"isPlanSelectionEnabled":                 false,
		"isTrialStatusBarEnabled":                false,
		"canSkipTrial":                           true,
		"pricingConfig": gin.H{
			"currency":   "$",
			"currencyID": "USD",
			"plans": gin.H{
				"personal": gin.H{
					"monthly": gin.H{"id": "ferdi-free", "price": 0, "billed": 0},
					"yearly":  gin.H{"id": "ferdi-completely-free", "price": 0, "billed": 0},
				},
				"pro": gin.H{
					"monthly": gin.H{"id": "ferdi-still-free", "price": 0, "billed": 0},
					"yearly":  gin.H{"id": "ferdi-forever-free", "price": 0, "billed": 0},
				},
			},
		},
	})
}

// EmptyArray answers endpoints whose content a self-hosted server never has.
func EmptyArray(c *gin.Context) {
	c.JSON(http.StatusOK, []string{})
}

// Plans lists the (free) payment plans.
func Plans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"month": gin.H{"id": "franz-supporter-license", "price": 99},
		"year":  gin.H{"id": "franz-supporter-license-year-2019", "price": 99},
	})
}

// Announcement serves a version-specific announcement file when the server
// operator has placed one under {recipe path}/../announcements.
func Announcement(c *gin.Context) {
	version := c.Param("version")
	if version == "" || strings.Contains(version, "/") || strings.Contains(version, "\\") || strings.Contains(version, "..") {
		c.String(http.StatusNotFound, "No announcement found.")
		return
	}

	announcementPath := filepath.Join(filepath.Dir(common.RecipePath), "announcements", version+".json")
	if _, err := os.Stat(announcementPath); err != nil {
		c.String(http.StatusNotFound, "No announcement found.")
		return
	}
	c.File(announcementPath)
}

// Health is the liveness probe.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"api": "success", "db": "success"})
}
