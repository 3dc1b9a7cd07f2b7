package handler

import (
	"strconv"

	"bskmt/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupLeaderboard struct {
	container *do.Injector
}

func (gr *groupLeaderboard) GetLeaderboard(c echo.Context) error {
	ctx := c.Request().Context()

	memberID := ""
	if member, err := ResolveValidMember(ctx, gr.container); err == nil {
		memberID = member.ID
	}

	serviceLeaderboard, err := do.Invoke[*services.ServiceLeaderboard](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	response, err := serviceLeaderboard.GetLeaderboard(ctx, limit, offset, memberID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, response, nil)
}

func (gr *groupLeaderboard) Me(c echo.Context) error {
	ctx := c.Request().Context()

	member, err := ResolveValidMember(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceLeaderboard, err := do.Invoke[*services.ServiceLeaderboard](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ranking, err := serviceLeaderboard.PositionOf(ctx, member.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, ranking, nil)
}
