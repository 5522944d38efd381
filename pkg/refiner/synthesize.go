package refiner

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// synthesisRule maps an attribute name pattern to a description.
// Rules are evaluated top to bottom; the first match wins.
type synthesisRule struct {
	match  func(lower string) bool
	render func(attribute, label string) string
}

func named(template string, names ...string) synthesisRule {
	return synthesisRule{
		match: func(lower string) bool {
			for _, n := range names {
				if lower == n {
					return true
				}
			}
			return false
		},
		render: func(_, label string) string {
			return fmt.Sprintf(template, label)
		},
	}
}

var synthesisRules = []synthesisRule{
	named("Unique identifier for the %s.", "id"),
	named("Name of the %s.", "name"),
	named("Title of the %s.", "title"),
	named("Description of the %s.", "description"),
	named("Notes related to the %s.", "notes"),
	named("Current status of the %s.", "status"),
	named("Type or classification of the %s.", "type"),
	named("Date and time when the %s was created.", "created_at", "createdat"),
	named("Date and time when the %s was last updated.", "updated_at", "updatedat"),
	{
		match: func(lower string) bool {
			return strings.HasSuffix(lower, "id")
		},
		render: func(attribute, _ string) string {
			return fmt.Sprintf("Foreign key referencing the %s.", referencedName(attribute))
		},
	},
}

// Synthesize builds a description for attribute within the table whose
// singular label is label.
func Synthesize(attribute, label string) string {
	attribute = strings.TrimSpace(attribute)
	lower := strings.ToLower(attribute)
	for _, rule := range synthesisRules {
		if rule.match(lower) {
			return rule.render(attribute, label)
		}
	}
	return fmt.Sprintf("%s of the %s.", Humanize(attribute), label)
}

// referencedName derives the referenced entity from a foreign key
// attribute: project_id -> Project, parentTaskId -> Parent Task.
func referencedName(attribute string) string {
	base := attribute
	if len(base) >= 2 && strings.EqualFold(base[len(base)-2:], "id") {
		base = base[:len(base)-2]
	}
	base = strings.TrimSuffix(base, "_")

	if strings.ToLower(base) != base {
		base = splitCamel(base)
	} else {
		base = strings.ReplaceAll(base, "_", " ")
	}
	return upperFirst(base)
}

// Humanize turns an attribute name into words: due_date -> Due date,
// dueDate -> Due Date.
func Humanize(attribute string) string {
	return splitCamel(upperFirst(strings.ReplaceAll(attribute, "_", " ")))
}

// SingularLabel converts a table identifier into a readable singular
// label: audit_logs -> audit log, activities -> activity. Names ending
// in "ss" or "tus" (address, status) are left alone.
func SingularLabel(table string) string {
	name := strings.ReplaceAll(table, "_", " ")
	switch {
	case strings.HasSuffix(name, "ies"):
		return strings.TrimSuffix(name, "ies") + "y"
	case strings.HasSuffix(name, "ss"), strings.HasSuffix(name, "tus"):
		return name
	case strings.HasSuffix(name, "s"):
		return strings.TrimSuffix(name, "s")
	default:
		return name
	}
}

// splitCamel inserts a space at every lower-to-upper case boundary.
func splitCamel(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 4)
	prev := rune(-1)
	for _, r := range s {
		if prev != -1 && unicode.IsLower(prev) && unicode.IsUpper(r) {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
		prev = r
	}
	return sb.String()
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
