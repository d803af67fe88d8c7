package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(ArticlesIndexed)
	RecordIndexed()
	assert.Equal(t, before+1, testutil.ToFloat64(ArticlesIndexed))

	before = testutil.ToFloat64(ArticleErrors.WithLabelValues("missing_header"))
	RecordError("missing_header")
	assert.Equal(t, before+1, testutil.ToFloat64(ArticleErrors.WithLabelValues("missing_header")))

	before = testutil.ToFloat64(ArticleReads.WithLabelValues("body"))
	RecordRead("body")
	assert.Equal(t, before+1, testutil.ToFloat64(ArticleReads.WithLabelValues("body")))

	SetArticles(12)
	assert.Equal(t, float64(12), testutil.ToFloat64(Articles))
}
