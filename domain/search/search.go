package search

import (
	"strconv"
	"strings"
)

// Query represents the structured parameters of a /search line.
// It decouples the raw input from what the hub expects in search_messages.
type Query struct {
	RawInput string // The original line typed by the user
	Terms    string // The text matched against message content
	Limit    int    // Zero lets the hub apply its default
}

// NewSearchQuery parses a raw string to extract command-line style arguments.
// Example: /search pizza friday --limit 5
func NewSearchQuery(input string) *Query {
	query := &Query{RawInput: input}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		// Handle flags like --limit 5, unknown flags are dropped with their value
		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			if strings.TrimPrefix(part, "--") == "limit" {
				if limit, err := strconv.Atoi(parts[i+1]); err == nil && limit > 0 {
					query.Limit = limit
				}
			}
			i++ // Skip the value part in next iteration
			continue
		}

		// If it's not a command, it's a search term
		if !strings.HasPrefix(part, "/") {
			textTerms = append(textTerms, part)
		}
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}
