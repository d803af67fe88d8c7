// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ArticlesIndexed counts articles successfully added to the spool index
	ArticlesIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gospool_articles_indexed_total",
		Help: "Articles added to the spool index",
	})

	// ArticleErrors counts articles rejected while loading or posting, by error kind
	ArticleErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gospool_article_errors_total",
		Help: "Articles that could not be loaded, by error kind",
	}, []string{"kind"})

	// ArticleReads counts head/body/content reads served
	ArticleReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gospool_article_reads_total",
		Help: "Article reads served, by part",
	}, []string{"part"})

	// Articles is the number of article handles held in memory
	Articles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gospool_articles",
		Help: "Article handles currently held by the spool",
	})
)

func RecordIndexed() { ArticlesIndexed.Inc() }

func RecordError(kind string) { ArticleErrors.WithLabelValues(kind).Inc() }

func RecordRead(part string) { ArticleReads.WithLabelValues(part).Inc() }

func SetArticles(n int) { Articles.Set(float64(n)) }
