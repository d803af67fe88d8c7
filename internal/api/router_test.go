package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datallboy/gospool/internal/api/controllers"
	"github.com/datallboy/gospool/internal/app"
	"github.com/datallboy/gospool/internal/infra/config"
	"github.com/datallboy/gospool/internal/infra/logger"
)

const sample = "Message-ID: <a@x>\n" +
	"Newsgroups: comp.lang,misc.test\n" +
	"Date: Sat, 01 Mar 2003 12:30:00 +0000\n" +
	"Subject: hello\n" +
	"From: poster@example.org\n" +
	"\n" +
	"first line\n" +
	"second line\n"

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		Spool: config.SpoolConfig{Dir: filepath.Join(dir, "spool"), Workers: 2},
		Store: config.StoreConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(dir, "gospool.db")},
	}
	ctx := app.NewContext(cfg, logger.NewWithWriter(io.Discard, logger.LevelError, false))
	require.NoError(t, ctx.OpenSpool(context.Background()))
	t.Cleanup(func() { _ = ctx.Close() })

	e := echo.New()
	RegisterRoutes(e, ctx)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func articlePath(id, suffix string) string {
	return "/articles/" + url.PathEscape(id) + suffix
}

func TestPostAndRead(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/articles", sample)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var posted controllers.PostResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posted))
	assert.Equal(t, "<a@x>", posted.MessageID)
	assert.Equal(t, map[string]int64{"comp.lang": 1, "misc.test": 1}, posted.Numbers)

	rec = do(e, http.MethodGet, articlePath("<a@x>", ""), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sample, rec.Body.String())
	assert.Equal(t, "<a@x>", rec.Header().Get("Message-ID"))

	rec = do(e, http.MethodGet, articlePath("<a@x>", "/body"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "first line\nsecond line\n", rec.Body.String())

	rec = do(e, http.MethodGet, articlePath("<a@x>", "/head"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Message-ID: <a@x>\n"))
	assert.NotContains(t, rec.Body.String(), "first line")
}

func TestPostErrors(t *testing.T) {
	e := newTestServer(t)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/articles", sample).Code)
	assert.Equal(t, http.StatusConflict, do(e, http.MethodPost, "/articles", sample).Code)

	noID := strings.Replace(sample, "Message-ID: <a@x>\n", "", 1)
	assert.Equal(t, http.StatusUnprocessableEntity, do(e, http.MethodPost, "/articles", noID).Code)

	badDate := strings.Replace(strings.Replace(sample, "<a@x>", "<b@x>", 1),
		"Sat, 01 Mar 2003 12:30:00 +0000", "not a date at all", 1)
	assert.Equal(t, http.StatusUnprocessableEntity, do(e, http.MethodPost, "/articles", badDate).Code)
}

func TestArticleNotFound(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodGet, articlePath("<nope@x>", ""), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body controllers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
}

func TestGroupsAndOverview(t *testing.T) {
	e := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/articles", sample).Code)

	rec := do(e, http.MethodGet, "/groups", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var groups controllers.GroupsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.Len(t, groups.Groups, 2)
	assert.Equal(t, "comp.lang", groups.Groups[0].Name)

	rec = do(e, http.MethodGet, "/groups/comp.lang/overview?range=1-", "")
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 1)
	fields := strings.Split(lines[0], "\t")
	require.Len(t, fields, 8)
	assert.Equal(t, "1", fields[0])
	assert.Equal(t, "hello", fields[1])
	assert.Equal(t, "<a@x>", fields[4])

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/groups/alt.none/overview", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/groups/comp.lang/overview?range=x", "").Code)
}

func TestNewNews(t *testing.T) {
	e := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/articles", sample).Code)

	rec := do(e, http.MethodGet, "/newnews?since=2003-03-01T12:30:00Z", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<a@x>\n", rec.Body.String())

	rec = do(e, http.MethodGet, "/newnews?since=2003-03-01T12:30:01Z&groups=comp.lang", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/newnews", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/newnews?since=yesterday", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/articles", sample).Code)

	rec := do(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gospool_articles_indexed_total")
}
