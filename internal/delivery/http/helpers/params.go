package helpers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Offset pagination defaults for from/size query parameters.
const (
	DefaultFrom = 0
	DefaultSize = 10
)

// queryTimeLayout is the wire format of rangeStart/rangeEnd.
const queryTimeLayout = "2006-01-02 15:04:05"

// ParseFromSize reads from and size from the query string, applying defaults
// for missing values. Values are returned as given; range validation is the
// service's job so that size=0 fails there explicitly.
func ParseFromSize(r *http.Request) (from, size int, err error) {
	from, size = DefaultFrom, DefaultSize
	if s := r.URL.Query().Get("from"); s != "" {
		if from, err = strconv.Atoi(s); err != nil {
			return 0, 0, fmt.Errorf("invalid from: %q", s)
		}
	}
	if s := r.URL.Query().Get("size"); s != "" {
		if size, err = strconv.Atoi(s); err != nil {
			return 0, 0, fmt.Errorf("invalid size: %q", s)
		}
	}
	return from, size, nil
}

// ParseIDParam parses a positive int64 path value.
func ParseIDParam(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

// ParseQueryTime parses an optional "yyyy-MM-dd HH:mm:ss" query value.
// Returns nil when the parameter is absent or blank.
func ParseQueryTime(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(queryTimeLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return &t, nil
}

// ParseIDList parses a comma-separated list of int64 ids from a query value.
func ParseIDList(r *http.Request, name string) ([]int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q", name, p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseOptionalBool parses an optional boolean query value.
func ParseOptionalBool(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return &b, nil
}
