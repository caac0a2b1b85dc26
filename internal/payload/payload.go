// Package payload implements the declarative request-body validator shared
// by the resource controllers. A controller owns a schema (an ordered list
// of field descriptors) and hands the raw decoded JSON body to Validate,
// which returns either a sanitized field map or the full list of
// field-level errors.
package payload

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/calagora/server/internal/domain/ids"
)

// Kind enumerates the supported field types.
type Kind string

const (
	KindString  Kind = "string"
	KindEmail   Kind = "email"
	KindNumber  Kind = "number"
	KindDate    Kind = "date"
	KindOwnerID Kind = "ownerId"
	KindOptions Kind = "options"
)

// Field describes one expected input field: its name, type, whether it is
// required, and per-type constraints (Min/Max for numbers, Options for
// enumerated values).
type Field struct {
	Name     string
	Type     Kind
	Required bool
	Min      *float64
	Max      *float64
	Options  []string
}

// Error is a single field-level validation failure.
type Error struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Errors aggregates every failure from a single validation run, in schema
// order. A non-empty Errors rejects the whole payload.
type Errors []Error

func (e Errors) Error() string {
	messages := make([]string, 0, len(e))
	for _, entry := range e {
		messages = append(messages, entry.Error())
	}
	return strings.Join(messages, "; ")
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// dateLayouts are tried in order when parsing date fields.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Validate checks input against schema and returns the sanitized field map.
// Unknown input fields are dropped silently; optional absent fields are
// omitted from the result. On failure it returns a non-nil Errors holding
// one entry per offending field, ordered by schema position. An empty
// sanitized map with no errors is a valid success; rejecting empty updates
// is the caller's business rule.
//
// Validate is a pure function of (schema, input) and is safe for
// concurrent use.
func Validate(schema []Field, input any) (map[string]any, error) {
	object, ok := input.(map[string]any)
	if !ok || object == nil {
		return nil, Errors{{Field: "body", Message: "Request body must be a JSON object."}}
	}

	sanitized := make(map[string]any, len(schema))
	var errs Errors

	for _, field := range schema {
		parser, known := parsers[field.Type]
		if !known {
			errs = append(errs, Error{Field: field.Name, Message: fmt.Sprintf("%s has an unsupported field type.", field.Name)})
			continue
		}
		if field.Type == KindOptions && len(field.Options) == 0 {
			errs = append(errs, Error{Field: field.Name, Message: fmt.Sprintf("%s has no configured options.", field.Name)})
			continue
		}

		value, present := object[field.Name]
		if !present || value == nil {
			if field.Required {
				errs = append(errs, Error{Field: field.Name, Message: fmt.Sprintf("%s is required.", field.Name)})
			}
			continue
		}

		parsed, parseErr := parser(field, value)
		if parseErr != nil {
			errs = append(errs, *parseErr)
			continue
		}
		sanitized[field.Name] = parsed
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return sanitized, nil
}

type parseFunc func(Field, any) (any, *Error)

var parsers = map[Kind]parseFunc{
	KindString:  parseString,
	KindEmail:   parseEmail,
	KindNumber:  parseNumber,
	KindDate:    parseDate,
	KindOwnerID: parseOwnerID,
	KindOptions: parseOptions,
}

func parseString(field Field, value any) (any, *Error) {
	raw, ok := value.(string)
	if !ok {
		return nil, &Error{Field: field.Name, Message: fmt.Sprintf("%s must be a non-empty string.", field.Name)}
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &Error{Field: field.Name, Message: fmt.Sprintf("%s must be a non-empty string.", field.Name)}
	}
	return trimmed, nil
}

func parseEmail(field Field, value any) (any, *Error) {
	trimmed, err := parseString(field, value)
	if err != nil {
		return nil, &Error{Field: field.Name, Message: fmt.Sprintf("%s must be a valid email address.", field.Name)}
	}
	address := trimmed.(string)
	if !emailPattern.MatchString(address) {
		return nil, &Error{Field: field.Name, Message: fmt.Sprintf("%s must be a valid email address.", field.Name)}
	}
	return address, nil
}

func parseNumber(field Field, value any) (any, *Error) {
	number, ok := coerceNumber(value)
	if !ok || math.IsNaN(number) || math.IsInf(number, 0) {
		return nil, &Error{Field: field.Name, Message: fmt.Sprintf("%s must be a valid number.", field.Name)}
	}
	if field.Min != nil && number < *field.Min {
		return nil, &Error{Field: field.Name, Message: fmt.Sprintf("%s must be greater than or equal to %s.", field.Name, formatBound(*field.Min))}
	}
	if field.Max != nil && number > *field.Max {
		return nil, &Error{Field: field.Name, Message: fmt.Sprintf("%s must be less than or equal to %s.", field.Name, formatBound(*field.Max))}
	}
	return number, nil
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func formatBound(bound float64) string {
	return strconv.FormatFloat(bound, 'f', -1, 64)
}

func parseDate(field Field, value any) (any, *Error) {
	raw, ok := value.(string)
	if !ok {
		return nil, &Error{Field: field.Name, Message: fmt.Sprintf("%s must be a valid date.", field.Name)}
	}
	trimmed := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, nil
		}
	}
	return nil, &Error{Field: field.Name, Message: fmt.Sprintf("%s must be a valid date.", field.Name)}
}

func parseOwnerID(field Field, value any) (any, *Error) {
	trimmed, err := parseString(field, value)
	if err != nil {
		return nil, &Error{Field: field.Name, Message: fmt.Sprintf("%s must be a valid document id.", field.Name)}
	}
	id := trimmed.(string)
	if validateErr := ids.Validate(id); validateErr != nil {
		return nil, &Error{Field: field.Name, Message: fmt.Sprintf("%s must be a valid document id.", field.Name)}
	}
	return id, nil
}

func parseOptions(field Field, value any) (any, *Error) {
	candidate := value
	if raw, ok := value.(string); ok {
		candidate = strings.TrimSpace(raw)
	}
	for _, option := range field.Options {
		if candidate == option {
			return option, nil
		}
	}
	return nil, &Error{Field: field.Name, Message: fmt.Sprintf("%s must be one of: %s.", field.Name, strings.Join(field.Options, ", "))}
}
