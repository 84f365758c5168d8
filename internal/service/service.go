// Package service holds the marketplace business rules on top of GORM.
package service

import (
	"errors"
	"strings"

	"home_eats/internal/domain"

	"gorm.io/gorm"
)

// notFound maps a missing row onto the domain error and passes anything else through
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// humanize turns an enum value like ready_for_delivery into words
func humanize(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

// likeEscaper neutralises LIKE wildcards; '!' is the escape character because a backslash
// literal is itself an escape in MySQL strings
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a LIKE pattern matching term as a plain substring; pair it with ESCAPE '!'
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func displayName(u *domain.User) string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Username
}
