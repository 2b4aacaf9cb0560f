package models

import (
	"regexp"
	"time"
)

// Field limits shared by the API and the catalog import. They match the gorm
// column sizes.
const (
	MaxCategoryNameLength = 250
	MaxGenreNameLength    = 20
	MaxTitleNameLength    = 250
	MaxSlugLength         = 50
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ValidSlug reports whether s has only ASCII letters, digits, underscores and hyphens
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Released reports whether year is not after the current year at now
func Released(year int, now time.Time) bool {
	return year <= now.Year()
}
