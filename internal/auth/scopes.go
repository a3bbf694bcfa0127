package auth

// OAuth scopes understood by the hydration API.
const (
	ScopeRead  = "hydration:read"
	ScopeWrite = "hydration:write"
)
