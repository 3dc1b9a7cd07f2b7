package handler

import (
	"strconv"

	"bskmt/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupReward struct {
	container *do.Injector
}

func (gr *groupReward) GetRewards(c echo.Context) error {
	ctx := c.Request().Context()

	member, err := ResolveValidMember(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceReward, err := do.Invoke[*services.ServiceReward](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	rewards, err := serviceReward.ListAvailable(ctx, member.Tier)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, rewards, nil)
}

func (gr *groupReward) Redeem(c echo.Context) error {
	ctx := c.Request().Context()

	member, err := ResolveValidMember(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	rewardID, err := strconv.ParseInt(c.Param("reward"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceReward, err := do.Invoke[*services.ServiceReward](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	redemption, err := serviceReward.Redeem(ctx, member.ID, rewardID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, redemption, nil)
}

// CancelRedemption lets a member withdraw their own pending redemption.
func (gr *groupReward) CancelRedemption(c echo.Context) error {
	ctx := c.Request().Context()

	member, err := ResolveValidMember(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceReward, err := do.Invoke[*services.ServiceReward](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	redemptionID := c.Param("redemption")
	redemption, err := serviceReward.CancelOwn(ctx, member.ID, redemptionID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, redemption, nil)
}

func (gr *groupReward) Redemptions(c echo.Context) error {
	ctx := c.Request().Context()

	member, err := ResolveValidMember(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceReward, err := do.Invoke[*services.ServiceReward](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	redemptions, err := serviceReward.RedemptionHistory(ctx, member.ID, limit, offset)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, redemptions, nil)
}
