package shared

import (
	"errors"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is applied when the caller sends no limit.
	DefaultLimit = 100
	// MaxLimit caps a single page.
	MaxLimit = 1000
)

// ErrInvalidPage reports a non-numeric or negative limit/offset.
var ErrInvalidPage = errors.New("invalid pagination parameters")

// Page is a limit/offset window over an ordered listing.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ParsePage reads raw limit/offset query values, applying defaults.
func ParsePage(limitRaw, offsetRaw string) (Page, error) {
	page := Page{Limit: DefaultLimit}
	if v := strings.TrimSpace(limitRaw); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return Page{}, ErrInvalidPage
		}
		if limit == 0 {
			limit = DefaultLimit
		}
		page.Limit = limit
	}
	if page.Limit > MaxLimit {
		page.Limit = MaxLimit
	}
	if v := strings.TrimSpace(offsetRaw); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return Page{}, ErrInvalidPage
		}
		page.Offset = offset
	}
	return page, nil
}
