package engine

import (
	"fmt"
	"testing"

	"github.com/policyq/policyq/internal/session"
)

// pairedHistory builds n alternating user/assistant turns.
func pairedHistory(n int) []session.Turn {
	turns := make([]session.Turn, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			turns = append(turns, session.NewUserTurn(fmt.Sprintf("question %d", i/2+1)))
		} else {
			turns = append(turns, session.NewAssistantTurn(fmt.Sprintf("answer %d", i/2+1), nil))
		}
	}
	return turns
}

func TestContextWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		history []session.Turn
		pairs   int
		want    int
		first   string
	}{
		{
			name:    "empty history",
			history: nil,
			pairs:   2,
			want:    0,
		},
		{
			name:    "single pair kept whole",
			history: pairedHistory(2),
			pairs:   2,
			want:    2,
			first:   "question 1",
		},
		{
			name:    "two pairs kept whole",
			history: pairedHistory(4),
			pairs:   2,
			want:    4,
			first:   "question 1",
		},
		{
			name:    "long history bounded to last two pairs",
			history: pairedHistory(10),
			pairs:   2,
			want:    4,
			first:   "question 4",
		},
		{
			name:    "single pair requested",
			history: pairedHistory(6),
			pairs:   1,
			want:    2,
			first:   "question 3",
		},
		{
			name:    "zero pairs yields nothing",
			history: pairedHistory(4),
			pairs:   0,
			want:    0,
		},
		{
			name: "dangling unanswered question included",
			history: append(pairedHistory(4),
				session.NewUserTurn("unanswered")),
			pairs: 2,
			want:  3,
			first: "question 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := contextWindow(tt.history, tt.pairs)
			if len(got) != tt.want {
				t.Fatalf("contextWindow() = %d turns, want %d", len(got), tt.want)
			}
			if tt.want > 0 && got[0].Content != tt.first {
				t.Errorf("first context turn = %q, want %q", got[0].Content, tt.first)
			}
			if tt.want > 0 {
				last := got[len(got)-1]
				histLast := tt.history[len(tt.history)-1]
				if last.Content != histLast.Content {
					t.Errorf("context is not a suffix of history: last = %q, want %q",
						last.Content, histLast.Content)
				}
			}
		})
	}
}
