package handler

import (
	"strconv"

	"bskmt/internal/models"
	"bskmt/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAdmin struct {
	container *do.Injector
}

func (gr *groupAdmin) CreateMember(c echo.Context) error {
	ctx := c.Request().Context()

	var member models.Member
	if err := c.Bind(&member); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceMember, err := do.Invoke[*services.ServiceMember](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	if err := serviceMember.CreateMember(ctx, &member); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, member, nil)
}

func (gr *groupAdmin) GrantPoints(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := ResolveAdminActor(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var body struct {
		Kind   models.TransactionKind `json:"kind"`
		Amount int                    `json:"amount"`
		Reason string                 `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	servicePoints, err := do.Invoke[*services.ServicePoints](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	txn, err := servicePoints.GrantPoints(ctx, c.Param("member"), body.Kind, body.Amount, body.Reason, actor)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, txn, nil)
}

func (gr *groupAdmin) AwardAttendance(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := ResolveAdminActor(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var body struct {
		EventID string `json:"event_id"`
		Amount  int    `json:"amount"`
	}
	if err := c.Bind(&body); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	servicePoints, err := do.Invoke[*services.ServicePoints](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	txn, err := servicePoints.AwardEventAttendance(ctx, c.Param("member"), body.EventID, body.Amount, actor)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, txn, nil)
}

func (gr *groupAdmin) RevokeAttendance(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := ResolveAdminActor(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	servicePoints, err := do.Invoke[*services.ServicePoints](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	txn, err := servicePoints.RevokeEventAttendance(ctx, c.Param("member"), c.Param("event"), actor)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, txn, nil)
}

func (gr *groupAdmin) Reconcile(c echo.Context) error {
	ctx := c.Request().Context()

	servicePoints, err := do.Invoke[*services.ServicePoints](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	total, err := servicePoints.Reconcile(ctx, c.Param("member"))
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]any{"balance": total}, nil)
}

func (gr *groupAdmin) OverrideTier(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := ResolveAdminActor(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var body struct {
		Tier   models.Tier `json:"tier"`
		Reason string      `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceProgression, err := do.Invoke[*services.ServiceProgression](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	if err := serviceProgression.AdminOverrideTier(ctx, c.Param("member"), body.Tier, actor, body.Reason); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, "ok", nil)
}

func (gr *groupAdmin) ToggleVolunteer(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := ResolveAdminActor(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var body struct {
		Volunteer bool `json:"volunteer"`
	}
	if err := c.Bind(&body); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceMember, err := do.Invoke[*services.ServiceMember](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	member, err := serviceMember.ToggleVolunteer(ctx, c.Param("member"), body.Volunteer, actor)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, member, nil)
}

func (gr *groupAdmin) CreateReward(c echo.Context) error {
	ctx := c.Request().Context()

	var reward models.Reward
	if err := c.Bind(&reward); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceReward, err := do.Invoke[*services.ServiceReward](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	if err := serviceReward.CreateReward(ctx, &reward); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, reward, nil)
}

func (gr *groupAdmin) EditReward(c echo.Context) error {
	ctx := c.Request().Context()

	rewardID, err := strconv.ParseInt(c.Param("reward"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	var reward models.Reward
	if err := c.Bind(&reward); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}
	reward.ID = rewardID

	serviceReward, err := do.Invoke[*services.ServiceReward](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	updated, err := serviceReward.EditReward(ctx, &reward)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, updated, nil)
}

// AdvanceRedemption moves a redemption to processing, completed or
// cancelled.
func (gr *groupAdmin) AdvanceRedemption(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := ResolveAdminActor(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var body struct {
		State  models.RedemptionState `json:"state"`
		Reason string                 `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceReward, err := do.Invoke[*services.ServiceReward](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	redemption, err := serviceReward.Advance(ctx, c.Param("redemption"), body.State, actor, body.Reason)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, redemption, nil)
}

func (gr *groupAdmin) SubmitForEvaluation(c echo.Context) error {
	ctx := c.Request().Context()

	serviceProgression, err := do.Invoke[*services.ServiceProgression](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	application, err := serviceProgression.SubmitForEvaluation(ctx, c.Param("application"))
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, application, nil)
}

func (gr *groupAdmin) RatifyApplication(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := ResolveAdminActor(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceProgression, err := do.Invoke[*services.ServiceProgression](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	application, err := serviceProgression.Ratify(ctx, c.Param("application"), actor)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, application, nil)
}

func (gr *groupAdmin) RejectApplication(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := ResolveAdminActor(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceProgression, err := do.Invoke[*services.ServiceProgression](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	application, err := serviceProgression.Reject(ctx, c.Param("application"), actor, body.Reason)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, application, nil)
}

func (gr *groupAdmin) RenewMandate(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := ResolveAdminActor(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceProgression, err := do.Invoke[*services.ServiceProgression](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	member, err := serviceProgression.RenewMandate(ctx, c.Param("member"), actor)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, member, nil)
}

func (gr *groupAdmin) SetConfig(c echo.Context) error {
	ctx := c.Request().Context()

	var body struct {
		Value string `json:"value"`
	}
	if err := c.Bind(&body); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceConfig, err := do.Invoke[*services.ServiceConfig](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	config, err := serviceConfig.SetConfig(ctx, c.Param("key"), body.Value)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, config, nil)
}

func (gr *groupAdmin) RebuildLeaderboard(c echo.Context) error {
	ctx := c.Request().Context()

	serviceLeaderboard, err := do.Invoke[*services.ServiceLeaderboard](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ranked, err := serviceLeaderboard.Rebuild(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]any{"ranked": ranked}, nil)
}
