package domain

import (
	"strings"
	"unicode/utf8"
)

// maxQueryLength caps search queries; the sites truncate anything longer.
const maxQueryLength = 256

// ValidateQuery validates a free-text product query.
func ValidateQuery(q string) error {
	text := strings.TrimSpace(q)
	if text == "" {
		return NewValidationError("query", q, ErrEmptyQuery)
	}
	if utf8.RuneCountInString(text) > maxQueryLength {
		return NewValidationError("query", text[:32]+"...", ErrQueryTooLong)
	}
	return nil
}

// ValidateProduct checks a candidate before it may be persisted.
func ValidateProduct(p Product) error {
	if strings.TrimSpace(p.Title) == "" {
		return NewValidationError("title", p.Title, ErrUntitledProduct)
	}
	if !ValidSources[p.Source] {
		return NewValidationError("source", string(p.Source), ErrUnknownSource)
	}
	return nil
}
