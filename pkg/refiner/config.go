// Package refiner rewrites generated database-schema documentation.
// It walks the HTML of a schema document, tracks the "TABLE: <name>"
// section it is in, and replaces column descriptions that are generic
// placeholders with descriptions synthesized from the table and
// attribute names.
package refiner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Column labels the refiner needs to locate in every data row.
const (
	ColumnAttribute   = "attribute"
	ColumnDescription = "description"
)

// Config defines the configuration options for the refiner.
type Config struct {
	// GenericPhrases are descriptions treated as placeholders regardless
	// of the attribute they describe. Matching is case-insensitive.
	GenericPhrases []string `json:"generic_phrases" yaml:"generic_phrases" mapstructure:"generic_phrases" validate:"dive,required"`

	// DefaultColumns maps lower-cased header labels to column positions
	// for tables that have no header row.
	DefaultColumns map[string]int `json:"default_columns" yaml:"default_columns" mapstructure:"default_columns" validate:"required,min=2,dive,keys,required,endkeys,gte=0"`

	// NormalizeCellTags emits <th> for every header-row cell and <td>
	// for every data-row cell, always with a closing tag. When false the
	// original cell tags are kept.
	NormalizeCellTags bool `json:"normalize_cell_tags" yaml:"normalize_cell_tags" mapstructure:"normalize_cell_tags"`
}

// DefaultColumns returns the column positions used when a table has no
// header row.
func DefaultColumns() map[string]int {
	return map[string]int{
		"attribute":   0,
		"data type":   1,
		"size":        2,
		"pk":          3,
		"fk":          4,
		"not null":    5,
		"unique":      6,
		"description": 7,
	}
}

// DefaultConfig returns the configuration matching the layout produced by
// common schema documentation generators.
func DefaultConfig() *Config {
	return &Config{
		GenericPhrases:    DefaultGenericPhrases(),
		DefaultColumns:    DefaultColumns(),
		NormalizeCellTags: false,
	}
}

// PresetLegacy reproduces the output of the original refinement script,
// which rewrote every header cell as <th> and every data cell as <td>.
func PresetLegacy() *Config {
	cfg := DefaultConfig()
	cfg.NormalizeCellTags = true
	return cfg
}

// Merge merges another config into this one.
// Phrases are appended (deduplicated), column positions from other
// override this config per label, and NormalizeCellTags wins if true.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	merged := *c

	if other.NormalizeCellTags {
		merged.NormalizeCellTags = true
	}

	if len(other.GenericPhrases) > 0 {
		seen := make(map[string]bool)
		phrases := make([]string, 0, len(c.GenericPhrases)+len(other.GenericPhrases))
		for _, p := range c.GenericPhrases {
			seen[strings.ToLower(p)] = true
			phrases = append(phrases, p)
		}
		for _, p := range other.GenericPhrases {
			if !seen[strings.ToLower(p)] {
				phrases = append(phrases, p)
				seen[strings.ToLower(p)] = true
			}
		}
		merged.GenericPhrases = phrases
	}

	if len(other.DefaultColumns) > 0 {
		columns := make(map[string]int, len(c.DefaultColumns)+len(other.DefaultColumns))
		for k, v := range c.DefaultColumns {
			columns[k] = v
		}
		for k, v := range other.DefaultColumns {
			columns[strings.ToLower(strings.TrimSpace(k))] = v
		}
		merged.DefaultColumns = columns
	}

	return &merged
}

var validate = validator.New()

// Validate checks that the config is usable. The default column map must
// locate both the attribute and the description column.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating config: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, e := range verrs {
			msgs = append(msgs, e.Namespace()+" "+formatValidationError(e))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}

	for _, label := range []string{ColumnAttribute, ColumnDescription} {
		if _, ok := c.DefaultColumns[label]; !ok {
			return fmt.Errorf("invalid config: default_columns must include %q", label)
		}
	}
	return nil
}

// formatValidationError creates a human-readable error message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", e.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
