package analysis

import "strings"

// TruncationBudget is a conservative character ceiling, roughly 100K tokens,
// keeping the transcript well under the model's context window.
const TruncationBudget = 400000

const truncationMarker = "…"

// Truncate caps transcript text at TruncationBudget characters, preferring to
// cut at a sentence boundary.
func Truncate(text string) string {
	return truncateTo(text, TruncationBudget)
}

func truncateTo(text string, budget int) string {
	if len(text) <= budget {
		return text
	}
	cut := text[:budget]
	// Trim back to the last full sentence so we don't hand the model half a
	// thought. If the slice has no period at all, keep it as-is.
	if i := strings.LastIndexByte(cut, '.'); i > 0 {
		cut = cut[:i+1]
	}
	return cut + truncationMarker
}
