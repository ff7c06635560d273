package errors

// Error codes surfaced on the wire. The Ferdi desktop client matches on
// these exact strings, so they stay kebab-case.
const (
	ErrInvalidCredentials = "invalid-credentials"
	ErrUnauthenticated    = "missing-or-invalid-token"
	ErrRegistrationClosed = "registration-disabled"
	ErrEmailTaken         = "email-duplicate"
)

// Recipe errors
const (
	ErrRecipeNotFound  = "recipe-not-found"
	ErrInvalidRecipeID = "invalid-recipe-id"
	ErrRecipeIDTaken   = "recipe-id-duplicate"
)

// Service / workspace errors
const (
	ErrServiceNotFound   = "service-not-found"
	ErrWorkspaceNotFound = "workspace-not-found"
)

// Upstream federation errors
const (
	ErrUpstreamUnavailable = "upstream-unavailable"
)
