package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultPage  = 1
	defaultLimit = 50
)

// parsePageQuery never fails: unspecified or non-numeric page/limit fall
// back to the defaults (1 and 50).
func parsePageQuery(r *http.Request) (page int, limit int) {
	q := r.URL.Query()

	page = defaultPage
	if s := q.Get("page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 1 {
			page = n
		}
	}

	limit = defaultLimit
	if s := q.Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 1 {
			limit = n
		}
	}

	return page, limit
}

func parseRangeQuery(r *http.Request) (start time.Time, end time.Time, err error) {
	q := r.URL.Query()

	s := q.Get("start")
	if s == "" {
		return time.Time{}, time.Time{}, errors.New("missing 'start' (expected RFC3339)")
	}
	start, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid 'start' (expected RFC3339)")
	}

	e := q.Get("end")
	if e == "" {
		return time.Time{}, time.Time{}, errors.New("missing 'end' (expected RFC3339)")
	}
	end, err = time.Parse(time.RFC3339, e)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid 'end' (expected RFC3339)")
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, errors.New("'start' must be <= 'end'")
	}

	return start, end, nil
}
