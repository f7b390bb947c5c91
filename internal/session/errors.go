package session

import "errors"

// Sentinel errors for session storage. Check with errors.Is().
var (
	// ErrInvalidRole indicates a turn role outside user/assistant.
	ErrInvalidRole = errors.New("invalid turn role")

	// ErrStorageDegraded marks a primary store failure that was absorbed
	// by demoting the session to the local tier. It is informational: it
	// appears in logs and wrapped errors, never in responses to callers.
	ErrStorageDegraded = errors.New("primary session store degraded")
)

// validRole reports whether role is one of the two turn roles.
func validRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
