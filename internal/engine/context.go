package engine

import "github.com/policyq/policyq/internal/session"

// contextWindow selects the prior turns eligible as conversational
// context: the last `pairs` question/answer pairs, located by scanning
// backward for user turns. The selection is a contiguous suffix of the
// history starting at the oldest eligible user turn, so a dangling
// unanswered question is included as-is rather than rejected. No turn
// text is rewritten here; disambiguating follow-ups against this context
// is left to the generation call.
func contextWindow(history []session.Turn, pairs int) []session.Turn {
	if pairs < 1 || len(history) == 0 {
		return nil
	}

	userSeen := 0
	start := 0
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != session.RoleUser {
			continue
		}
		userSeen++
		if userSeen == pairs {
			start = i
			break
		}
	}

	return history[start:]
}
