package article

import (
	"strings"

	"github.com/datallboy/gospool/internal/rfc822"
)

// overviewFormat is the field order of every overview record this server
// produces (RFC 3977 section 8.3). Clients rely on it, so it is fixed.
var overviewFormat = [...]string{
	"Subject",
	"From",
	"Date",
	"Message-ID",
	"References",
	"Bytes",
	"Lines",
}

// OverviewFormat returns the overview field names in record order.
func OverviewFormat() []string {
	return append([]string(nil), overviewFormat[:]...)
}

var fieldBreaks = strings.NewReplacer(
	"\r\n", " ",
	"\n\r", " ",
	"\n", " ",
	"\r", " ",
	"\t", " ",
)

// buildOverview renders h as a single tab separated line.
// Absent fields are left empty.
func buildOverview(h rfc822.Header) string {
	fields := make([]string, len(overviewFormat))
	for i, name := range overviewFormat {
		if !h.Has(name) {
			continue
		}
		fields[i] = fieldBreaks.Replace(h.Get(name))
	}
	return strings.Join(fields, "\t")
}
