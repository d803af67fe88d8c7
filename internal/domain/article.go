package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ArticleRecord is the indexed view of a spooled article.
// It carries only what the index needs; the article text stays on disk.
type ArticleRecord struct {
	MessageID  string
	Path       string
	Newsgroups []string
	PostDate   time.Time
	Overview   string
}

// Group is a newsgroup as seen by the index.
type Group struct {
	Name  string `json:"name"`
	Low   int64  `json:"low"`
	High  int64  `json:"high"`
	Count int64  `json:"count"`
}

// OverviewLine is one record of an OVER response: the local article
// number followed by the article's overview fields.
type OverviewLine struct {
	Number    int64
	MessageID string
	Overview  string
}

func (l OverviewLine) String() string {
	return strconv.FormatInt(l.Number, 10) + "\t" + l.Overview
}

// ParseRange reads an article range as used by OVER: "n", "n-" or "n-m".
// An empty range selects every article. A high of 0 means no upper bound.
func ParseRange(s string) (low, high int64, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1, 0, nil
	}

	lo, hi, dash := strings.Cut(s, "-")
	low, err = strconv.ParseInt(lo, 10, 64)
	if err != nil || low < 0 {
		return 0, 0, fmt.Errorf("invalid range %q", s)
	}

	switch {
	case !dash:
		high = low
	case hi == "":
		high = 0
	default:
		high, err = strconv.ParseInt(hi, 10, 64)
		if err != nil || high < low {
			return 0, 0, fmt.Errorf("invalid range %q", s)
		}
	}
	return low, high, nil
}
