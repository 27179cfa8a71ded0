package pagination

import (
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the page size used when the caller does not send one.
	DefaultLimit = 50
	// MaxLimit caps how many rows a single list query can return.
	MaxLimit = 200
)

// Params holds the offset pagination inputs parsed from a list request.
type Params struct {
	Limit  int
	Offset int
}

// FromQuery builds Params from raw query-string values. Unparseable or
// missing values fall back to the defaults.
func FromQuery(limitRaw, offsetRaw string) Params {
	limit := 0
	if parsed, err := strconv.Atoi(strings.TrimSpace(limitRaw)); err == nil {
		limit = parsed
	}
	offset := 0
	if parsed, err := strconv.Atoi(strings.TrimSpace(offsetRaw)); err == nil {
		offset = parsed
	}
	return Params{Limit: NormalizeLimit(limit), Offset: NormalizeOffset(offset)}
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizeOffset clamps negative offsets to zero.
func NormalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
