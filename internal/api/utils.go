package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aaronlmathis/vizstream/internal/timeseries"
)

// countRangeMessage is the client error for bulk requests outside the allowed size
var countRangeMessage = fmt.Sprintf("Count must be between %d and %d",
	timeseries.MinRequestCount, timeseries.MaxRequestCount)

// writeJSON encodes v with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseCount parses a bulk request size. Empty input selects defaultValue;
// anything that is not an integer inside the allowed range is rejected.
func parseCount(raw string, defaultValue int) (int, bool) {
	if raw == "" {
		return defaultValue, true
	}

	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	if count < timeseries.MinRequestCount || count > timeseries.MaxRequestCount {
		return 0, false
	}
	return count, true
}

// parsePositiveInt parses a strictly positive integer, or returns defaultValue
// for empty input
func parsePositiveInt(raw string, defaultValue int) (int, bool) {
	if raw == "" {
		return defaultValue, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}
