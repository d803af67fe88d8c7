package controllers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/datallboy/gospool/internal/app"
	"github.com/datallboy/gospool/internal/article"
	"github.com/datallboy/gospool/internal/infra/metrics"
)

const textPlain = "text/plain; charset=utf-8"

type ArticleController struct {
	App *app.Context
}

// HandleContent returns the whole article.
func (ctrl *ArticleController) HandleContent(c *echo.Context) error {
	return ctrl.serve(c, "all", (*article.Article).Content)
}

// HandleHead returns the header block of the article.
func (ctrl *ArticleController) HandleHead(c *echo.Context) error {
	return ctrl.serve(c, "head", (*article.Article).Head)
}

// HandleBody returns the article text after the header block.
func (ctrl *ArticleController) HandleBody(c *echo.Context) error {
	return ctrl.serve(c, "body", (*article.Article).Body)
}

func (ctrl *ArticleController) serve(c *echo.Context, part string, read func(*article.Article) ([]byte, error)) error {
	a, err := ctrl.App.Spool.Get(messageID(c))
	if err != nil {
		return respondError(c, err)
	}

	data, err := read(a)
	if err != nil {
		ctrl.App.Logger.Warn("reading %s of %s: %v", part, a.ID(), err)
		return respondError(c, err)
	}

	metrics.RecordRead(part)
	c.Response().Header().Set("Message-ID", a.ID())
	return c.Blob(http.StatusOK, textPlain, data)
}

// HandlePost files the raw article in the request body into the spool.
func (ctrl *ArticleController) HandlePost(c *echo.Context) error {
	a, numbers, err := ctrl.App.Spool.Put(c.Request().Context(), c.Request().Body)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, PostResponse{
		MessageID: a.ID(),
		Numbers:   numbers,
	})
}

// HandleNewNews lists the message-ids of articles posted since the
// "since" timestamp, one per line.
func (ctrl *ArticleController) HandleNewNews(c *echo.Context) error {
	raw := c.QueryParam("since")
	if raw == "" {
		return badRequest(c, "since is required")
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return badRequest(c, "since must be an RFC 3339 timestamp")
	}

	var groups []string
	if g := c.QueryParam("groups"); g != "" {
		groups = strings.Split(g, ",")
	}

	ids := ctrl.App.Spool.NewNews(since, groups)

	var b strings.Builder
	for _, id := range ids {
		b.WriteString(id)
		b.WriteByte('\n')
	}
	return c.Blob(http.StatusOK, textPlain, []byte(b.String()))
}

// messageID returns the :id path parameter, unescaped if the router left
// it escaped.
func messageID(c *echo.Context) string {
	id := c.Param("id")
	if unescaped, err := url.PathUnescape(id); err == nil {
		id = unescaped
	}
	return id
}
