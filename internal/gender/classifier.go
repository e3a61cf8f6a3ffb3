// Package gender wraps the first-name gender-inference collaborator.
// Classification itself is external; this package defines the contract,
// a table-backed implementation, and a caching decorator.
package gender

import (
	"strings"
	"unicode"
)

// Category is the fixed classification set of the collaborator.
type Category string

const (
	Male         Category = "male"
	Female       Category = "female"
	MostlyMale   Category = "mostly_male"
	MostlyFemale Category = "mostly_female"
	Andy         Category = "andy" // ambiguous
	Unknown      Category = "unknown"
)

// Classifier maps a first name to a Category. Implementations must
// return Unknown rather than fail for names they cannot classify.
type Classifier interface {
	Classify(firstName string) Category
}

// Capitalize normalizes a first name the way the collaborator expects:
// first rune upper-cased, the rest lowered.
func Capitalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	runes := []rune(strings.ToLower(name))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
