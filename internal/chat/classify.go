package chat

import "strings"

// Query classifications.
const (
	QueryLivestock = "livestock"
	QueryGeneral   = "general"
)

// ParseClassification maps raw model output to a query class. The match is
// a case-insensitive substring check because models wrap the answer in
// quotes, punctuation or whole sentences despite the one-word instruction.
// Unrecognized output classifies as general.
func ParseClassification(raw string) string {
	if strings.Contains(strings.ToLower(strings.TrimSpace(raw)), QueryLivestock) {
		return QueryLivestock
	}
	return QueryGeneral
}
