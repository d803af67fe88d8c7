package rfc822

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/textproto"

	gmtextproto "github.com/emersion/go-message/textproto"
)

// Header maps a header name to its single logical value.
// Keys are stored in canonical MIME form, so lookups are case-insensitive.
type Header map[string]string

func (h Header) Get(key string) string {
	return h[textproto.CanonicalMIMEHeaderKey(key)]
}

func (h Header) Has(key string) bool {
	_, ok := h[textproto.CanonicalMIMEHeaderKey(key)]
	return ok
}

func (h Header) Set(key, value string) {
	h[textproto.CanonicalMIMEHeaderKey(key)] = value
}

func (h Header) Clone() Header {
	return maps.Clone(h)
}

// ParseHeaders reads the header block at the start of r.
// Folded lines are joined by the go-message reader. When a header
// appears more than once the first occurrence wins. Reaching EOF
// before a blank line is not an error: the whole input is the header block.
func ParseHeaders(r io.Reader) (Header, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	raw, err := gmtextproto.ReadHeader(br)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header block: %w", err)
	}

	h := make(Header, raw.Len())
	fields := raw.Fields()
	for fields.Next() {
		if h.Has(fields.Key()) {
			continue
		}
		h.Set(fields.Key(), fields.Value())
	}
	return h, nil
}
