package controllers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/datallboy/gospool/internal/app"
	"github.com/datallboy/gospool/internal/domain"
)

type GroupController struct {
	App *app.Context
}

// HandleList returns every newsgroup the index knows with its article range.
func (ctrl *GroupController) HandleList(c *echo.Context) error {
	groups, err := ctrl.App.Index.ListGroups(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, GroupsResponse{Groups: groups})
}

// HandleOverview returns the overview lines of a group, one per article,
// each prefixed with the article number.
func (ctrl *GroupController) HandleOverview(c *echo.Context) error {
	low, high, err := domain.ParseRange(c.QueryParam("range"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	lines, err := ctrl.App.Index.Overview(c.Request().Context(), c.Param("group"), low, high)
	if err != nil {
		return respondError(c, err)
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return c.Blob(http.StatusOK, textPlain, []byte(b.String()))
}
