package security

import (
	"fmt"
	"regexp"
)

const (
	MinIndexNameLength = 1
	MaxIndexNameLength = 63

	MinTopK = 1
	MaxTopK = 10000
)

// ValidationError represents a field validation error.
type ValidationError struct {
	Field      string
	Value      interface{}
	Constraint string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed for %s: %s (got: %v)", e.Field, e.Constraint, e.Value)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Constraint)
}

// indexNameRegex matches names valid as a Qdrant collection and a Postgres table.
var indexNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidateIndexName validates an index name.
func ValidateIndexName(name string) error {
	if name == "" {
		return &ValidationError{
			Field:      "index_name",
			Constraint: "required",
		}
	}

	if len(name) > MaxIndexNameLength {
		return &ValidationError{
			Field:      "index_name",
			Value:      len(name),
			Constraint: fmt.Sprintf("maximum length is %d characters", MaxIndexNameLength),
		}
	}

	if !indexNameRegex.MatchString(name) {
		return &ValidationError{
			Field:      "index_name",
			Value:      name,
			Constraint: "must contain only alphanumeric characters, hyphens, and underscores, and start with alphanumeric",
		}
	}

	return nil
}

// ValidateTopK validates the top_k parameter.
func ValidateTopK(topK int) error {
	if topK < MinTopK {
		return &ValidationError{
			Field:      "top_k",
			Value:      topK,
			Constraint: fmt.Sprintf("minimum value is %d", MinTopK),
		}
	}

	if topK > MaxTopK {
		return &ValidationError{
			Field:      "top_k",
			Value:      topK,
			Constraint: fmt.Sprintf("maximum value is %d", MaxTopK),
		}
	}

	return nil
}
