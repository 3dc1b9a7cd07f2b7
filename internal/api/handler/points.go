package handler

import (
	"strconv"
	"time"

	"bskmt/internal/models"
	"bskmt/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupPoints struct {
	container *do.Injector
}

func (gr *groupPoints) Balance(c echo.Context) error {
	ctx := c.Request().Context()

	member, err := ResolveValidMember(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	servicePoints, err := do.Invoke[*services.ServicePoints](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	balance, err := servicePoints.BalanceOf(ctx, member.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	lifetime, err := servicePoints.LifetimePoints(ctx, member.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	lastYear, err := servicePoints.LastYearPoints(ctx, member.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]any{
		"balance":          balance,
		"lifetime_points":  lifetime,
		"last_year_points": lastYear,
	}, nil)
}

// History pages the member's ledger newest first; the cursor query params
// come from the previous page's next cursor.
func (gr *groupPoints) History(c echo.Context) error {
	ctx := c.Request().Context()

	member, err := ResolveValidMember(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	servicePoints, err := do.Invoke[*services.ServicePoints](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	var cursor models.HistoryCursor
	if raw := c.QueryParam("cursor_at"); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
		}
		cursor = models.HistoryCursor{CreatedAt: at, ID: c.QueryParam("cursor_id")}
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	page, err := servicePoints.History(ctx, member.ID, cursor, limit)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, page, nil)
}
