package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/oliverbray/shopsmart-backend/pkg/errors"
)

// QueryString returns a trimmed query parameter.
func QueryString(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// QueryInt parses an optional positive integer query parameter, returning
// fallback when absent.
func QueryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := QueryString(r, name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, name+" must be a positive integer")
	}
	return value, nil
}

// PathInt64 parses a positive int64 path segment value.
func PathInt64(raw, name string) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, name+" must be a positive integer")
	}
	return value, nil
}
