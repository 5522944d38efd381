package refiner

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// DefaultGenericPhrases returns the boilerplate descriptions emitted by
// common schema documentation generators. Comparison is case-insensitive.
func DefaultGenericPhrases() []string {
	return []string{
		"name of the entity.",
		"title of the entity.",
		"detailed description of the activity or entity.",
		"unique identifier for the record.",
		"current status of the process (e.g., open, resolved).",
		"timestamp when the record was created.",
		"timestamp when the record was last updated.",
		"name.",
		"title.",
		"description.",
		"status.",
		"type.",
		"id.",
	}
}

// genericRule is one entry of the classification table. Rules are
// evaluated in order and the first match wins.
type genericRule struct {
	reason string
	match  func(attr, desc string, phrases []string) bool
}

// attr and desc are lower-cased and trimmed before rules run.
var genericRules = []genericRule{
	{"empty", func(_, desc string, _ []string) bool {
		return desc == ""
	}},
	{"restates attribute", func(attr, desc string, _ []string) bool {
		return desc == attr
	}},
	{"restates attribute with period", func(attr, desc string, _ []string) bool {
		return desc == attr+"."
	}},
	{"boilerplate phrase", func(_, desc string, phrases []string) bool {
		for _, p := range phrases {
			if desc == strings.ToLower(strings.TrimSpace(p)) {
				return true
			}
		}
		return false
	}},
	{"mentions entity", func(_, desc string, _ []string) bool {
		return strings.Contains(desc, "of the entity")
	}},
	{"mentions record", func(attr, desc string, _ []string) bool {
		return strings.Contains(desc, "of the record") && attr != "id"
	}},
}

// Classify reports whether description is a generic placeholder for the
// given attribute and, when it is, the name of the rule that matched.
func Classify(attribute, description string, phrases []string) (bool, string) {
	attr := strings.ToLower(strings.TrimSpace(attribute))
	desc := strings.ToLower(strings.TrimSpace(description))
	for _, rule := range genericRules {
		if rule.match(attr, desc, phrases) {
			return true, rule.reason
		}
	}
	return false, ""
}

// IsGeneric reports whether description carries no information beyond
// restating the attribute or a known boilerplate phrase.
func IsGeneric(attribute, description string, phrases []string) bool {
	generic, _ := Classify(attribute, description, phrases)
	return generic
}

// tagRegex matches a single markup tag.
var tagRegex = regexp.MustCompile(`<[^>]+>`)

// PlainText strips all tags from cell markup, decodes character
// references and trims surrounding whitespace.
func PlainText(markup string) string {
	return strings.TrimSpace(html.UnescapeString(tagRegex.ReplaceAllString(markup, "")))
}

// tableMarker matches a "TABLE: <identifier>" declaration. Identifier
// characters follow Unicode word semantics.
var tableMarker = regexp.MustCompile(`TABLE:[\s\p{Z}]*([\p{L}\p{N}_]+)`)

// TableName extracts the identifier following a "TABLE:" marker.
// found is true whenever the marker is present; name is empty when no
// identifier follows it.
func TableName(text string) (name string, found bool) {
	if !strings.Contains(text, "TABLE:") {
		return "", false
	}
	m := tableMarker.FindStringSubmatch(text)
	if m == nil {
		return "", true
	}
	return m[1], true
}
