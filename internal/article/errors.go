package article

import "errors"

var (
	// ErrStorageUnavailable wraps any failure to open or read the article file.
	ErrStorageUnavailable = errors.New("article storage unavailable")
	// ErrHeaderParse is returned when the header block cannot be parsed.
	ErrHeaderParse = errors.New("malformed article header")
	// ErrMissingHeader is returned when Message-ID or Newsgroups is absent.
	ErrMissingHeader = errors.New("missing required header")
	// ErrDateParse is returned when the Date header is absent or unparseable.
	ErrDateParse = errors.New("unparseable Date header")
)
