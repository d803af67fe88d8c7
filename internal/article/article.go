// Package article models a single news article stored verbatim as an
// RFC822 text file.
//
// An Article keeps only what routing and listing need in memory: the
// message-id, the newsgroups, the post date and a precomputed overview
// record. Head, body and full content are re-read from the file on every
// call. None of the methods modify the file, and an Article never changes
// after New returns, so it can be shared between goroutines freely.
//
// If the file is rewritten after construction the cached fields go stale
// while Head, Body and Content reflect the new bytes.
package article

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/datallboy/gospool/internal/rfc822"
)

// HeaderParser reads the header block at the start of an article.
type HeaderParser interface {
	ParseHeaders(r io.Reader) (rfc822.Header, error)
}

type HeaderParserFunc func(r io.Reader) (rfc822.Header, error)

func (f HeaderParserFunc) ParseHeaders(r io.Reader) (rfc822.Header, error) { return f(r) }

// DateParser turns a Date header value into a time.
type DateParser interface {
	ParseDate(s string) (time.Time, error)
}

type DateParserFunc func(s string) (time.Time, error)

func (f DateParserFunc) ParseDate(s string) (time.Time, error) { return f(s) }

// GroupFilter reports whether something belongs to the groups selected
// by a list of newsgroup patterns.
type GroupFilter interface {
	MatchesGroups(patterns []string) bool
}

type options struct {
	headers HeaderParser
	dates   DateParser
}

type Option func(*options)

func WithHeaderParser(p HeaderParser) Option {
	return func(o *options) { o.headers = p }
}

func WithDateParser(p DateParser) Option {
	return func(o *options) { o.dates = p }
}

// Article is the read-only handle of one spooled article.
type Article struct {
	fsys fs.FS
	name string
	path string

	id         string
	newsgroups []string
	postDate   time.Time
	overview   string
	bytes      int64
	lines      int64
}

var _ GroupFilter = (*Article)(nil)

// New builds the handle for the article file at path.
func New(path string, opts ...Option) (*Article, error) {
	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	return build(os.DirFS(dir), name, path, opts)
}

// Open builds the handle for the article stored as name in fsys.
func Open(fsys fs.FS, name string, opts ...Option) (*Article, error) {
	return build(fsys, name, name, opts)
}

func build(fsys fs.FS, name, path string, opts []Option) (*Article, error) {
	o := options{
		headers: HeaderParserFunc(rfc822.ParseHeaders),
		dates:   DateParserFunc(rfc822.ParseDate),
	}
	for _, opt := range opts {
		opt(&o)
	}

	headers, err := readHeaders(fsys, name, path, o.headers)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(headers.Get("Message-ID"))
	if id == "" {
		return nil, fmt.Errorf("%s: %w Message-ID", path, ErrMissingHeader)
	}

	if !headers.Has("Newsgroups") {
		return nil, fmt.Errorf("%s: %w Newsgroups", path, ErrMissingHeader)
	}
	groups := splitNewsgroups(headers.Get("Newsgroups"))
	if len(groups) == 0 {
		return nil, fmt.Errorf("%s: %w Newsgroups", path, ErrMissingHeader)
	}

	if !headers.Has("Date") {
		return nil, fmt.Errorf("%s: %w: no Date header", path, ErrDateParse)
	}
	postDate, err := o.dates.ParseDate(headers.Get("Date"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrDateParse, err)
	}

	// Not every posting agent writes Bytes and Lines, but the overview
	// format has a slot for both.
	if !headers.Has("Bytes") || !headers.Has("Lines") {
		size, lines, err := measure(fsys, name)
		if err != nil {
			return nil, storageError(path, err)
		}
		headers = headers.Clone()
		if !headers.Has("Bytes") {
			headers.Set("Bytes", strconv.FormatInt(size, 10))
		}
		if !headers.Has("Lines") {
			headers.Set("Lines", strconv.FormatInt(lines, 10))
		}
	}

	return &Article{
		fsys:       fsys,
		name:       name,
		path:       path,
		id:         id,
		newsgroups: groups,
		postDate:   postDate,
		overview:   buildOverview(headers),
		bytes:      parseCount(headers.Get("Bytes")),
		lines:      parseCount(headers.Get("Lines")),
	}, nil
}

func readHeaders(fsys fs.FS, name, path string, p HeaderParser) (rfc822.Header, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, storageError(path, err)
	}
	defer f.Close()

	headers, err := p.ParseHeaders(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrHeaderParse, err)
	}
	if headers == nil {
		headers = rfc822.Header{}
	}
	return headers, nil
}

// splitNewsgroups splits a Newsgroups value on commas, trimming the
// whitespace around each name.
func splitNewsgroups(v string) []string {
	var groups []string
	for _, g := range strings.Split(v, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

// measure returns the size of the file and its number of lines.
// A final line without a terminator still counts.
func measure(fsys fs.FS, name string) (size, lines int64, err error) {
	f, err := fsys.Open(name)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	buf := make([]byte, 32*1024)
	last := byte('\n')
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			size += int64(n)
			lines += int64(bytes.Count(buf[:n], []byte{'\n'}))
			last = buf[n-1]
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return 0, 0, rerr
		}
	}
	if last != '\n' {
		lines++
	}
	return size, lines, nil
}

// parseCount reads a Bytes or Lines value. Posting agents sometimes write
// junk there; that reads as 0 and the raw text stays in the overview.
func parseCount(v string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func storageError(path string, err error) error {
	return fmt.Errorf("%s: %w: %w", path, ErrStorageUnavailable, err)
}

// ID returns the message-id, angle brackets included.
func (a *Article) ID() string { return a.id }

// Newsgroups returns the groups the article is posted to.
func (a *Article) Newsgroups() []string { return slices.Clone(a.newsgroups) }

// PostDate returns the parsed Date header.
func (a *Article) PostDate() time.Time { return a.postDate }

// Overview returns the overview record, without an article number.
func (a *Article) Overview() string { return a.overview }

// Bytes returns the article size used in the overview.
func (a *Article) Bytes() int64 { return a.bytes }

// Lines returns the line count used in the overview.
func (a *Article) Lines() int64 { return a.lines }

// Path returns where the article is stored.
func (a *Article) Path() string { return a.path }

// ExistedAt reports whether the article was posted at or after t.
func (a *Article) ExistedAt(t time.Time) bool {
	return !a.postDate.Before(t)
}

// MatchesGroups always reports true.
//
// Filtering by wildmat patterns (see NEWNEWS in RFC 977) is not
// implemented yet; callers get every article regardless of patterns.
func (a *Article) MatchesGroups(patterns []string) bool {
	return true
}
