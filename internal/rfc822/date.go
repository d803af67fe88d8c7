package rfc822

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var ErrEmptyDate = errors.New("empty date")

// ParseDate parses an article Date header.
// RFC 5322 dates are tried first; old Usenet software emits plenty of
// near-misses, so anything else goes through dateparse before giving up.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyDate
	}

	if t, err := mail.ParseDate(s); err == nil {
		return t, nil
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
