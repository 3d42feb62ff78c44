package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/datahub-inc/datahub-engine/pkg/jsonutil"
	"github.com/datahub-inc/datahub-engine/pkg/services"
)

const dateLayout = "2006-01-02"

// Query parameters with reserved meaning on collection endpoints. Everything
// else in the query string is treated as a filter binding, so new filters
// declared in the catalog work without handler changes.
var reservedParams = map[string]bool{
	"language":  true,
	"page":      true,
	"page_size": true,
	"from":      true,
	"to":        true,
	"filters":   true,
}

// Collection endpoints default to one well-filled dashboard page.
const defaultPageSize = 15

// ParseCollectionQuery builds the query request from URL parameters. The
// filter map merges free query parameters with the optional `filters` JSON
// object parameter; the JSON form wins on key collision.
func ParseCollectionQuery(r *http.Request) (services.QueryRequest, error) {
	q := r.URL.Query()

	req := services.QueryRequest{
		TableType: r.PathValue("table_type"),
		Language:  q.Get("language"),
		Filters:   map[string]string{},
		Page:      1,
		PageSize:  defaultPageSize,
	}

	var err error
	if req.Page, err = intParam(q.Get("page"), req.Page); err != nil {
		return req, fmt.Errorf("page: %w", err)
	}
	if req.PageSize, err = intParam(q.Get("page_size"), req.PageSize); err != nil {
		return req, fmt.Errorf("page_size: %w", err)
	}
	if req.From, err = dateParam(q.Get("from")); err != nil {
		return req, fmt.Errorf("from: %w", err)
	}
	if req.To, err = dateParam(q.Get("to")); err != nil {
		return req, fmt.Errorf("to: %w", err)
	}

	for key, values := range q {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		req.Filters[key] = values[0]
	}

	if raw := q.Get("filters"); raw != "" {
		extra, err := jsonutil.FlexibleStringMap(json.RawMessage(raw))
		if err != nil {
			return req, fmt.Errorf("filters: %w", err)
		}
		for key, value := range extra {
			req.Filters[key] = value
		}
	}

	return req, nil
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return n, nil
}

func dateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%q is not a date (expected %s)", raw, dateLayout)
	}
	return &t, nil
}
