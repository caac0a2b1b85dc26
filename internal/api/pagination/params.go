// Package pagination parses the limit/offset query parameters shared by
// the list endpoints.
package pagination

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type Params struct {
	Limit  int
	Offset int
}

type ParamError struct {
	Param   string
	Message string
}

func (e ParamError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Message)
}

// Parse reads limit and offset from values, applying defaults and bounds.
func Parse(values url.Values) (Params, error) {
	params := Params{Limit: DefaultLimit}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return params, ParamError{Param: "limit", Message: "must be a number"}
		}
		if parsed < 1 || parsed > MaxLimit {
			return params, ParamError{Param: "limit", Message: fmt.Sprintf("must be between 1 and %d", MaxLimit)}
		}
		params.Limit = parsed
	}

	if raw := strings.TrimSpace(values.Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return params, ParamError{Param: "offset", Message: "must be a number"}
		}
		if parsed < 0 {
			return params, ParamError{Param: "offset", Message: "must be zero or greater"}
		}
		params.Offset = parsed
	}

	return params, nil
}
