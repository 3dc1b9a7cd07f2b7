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

type groupMembership struct {
	container *do.Injector
}

func (gr *groupMembership) Me(c echo.Context) error {
	ctx := c.Request().Context()

	member, err := ResolveValidMember(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, member, nil)
}

// Requirements reports the member's standing against the next tier; a
// ?tier= query targets a specific one.
func (gr *groupMembership) Requirements(c echo.Context) error {
	ctx := c.Request().Context()

	member, err := ResolveValidMember(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceRequirements, err := do.Invoke[*services.ServiceRequirements](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	report, err := serviceRequirements.EvaluateMember(ctx, member.ID, models.Tier(c.QueryParam("tier")))
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, report, nil)
}

func (gr *groupMembership) RequestUpgrade(c echo.Context) error {
	ctx := c.Request().Context()

	member, err := ResolveValidMember(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceProgression, err := do.Invoke[*services.ServiceProgression](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	report, err := serviceProgression.RequestUpgrade(ctx, member.ID)
	if err != nil {
		return httpx.RestAbort(c, report, err)
	}

	return httpx.RestAbort(c, report, nil)
}

func (gr *groupMembership) History(c echo.Context) error {
	ctx := c.Request().Context()

	member, err := ResolveValidMember(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceMember, err := do.Invoke[*services.ServiceMember](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	events, err := serviceMember.MembershipHistory(ctx, member.ID, limit)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, events, nil)
}

func (gr *groupMembership) ApplyForLeader(c echo.Context) error {
	ctx := c.Request().Context()

	member, err := ResolveValidMember(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var body struct {
		LeadershipPlan string `json:"leadership_plan"`
	}
	if err := c.Bind(&body); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceProgression, err := do.Invoke[*services.ServiceProgression](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	application, err := serviceProgression.ApplyForLeader(ctx, member.ID, body.LeadershipPlan)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, application, nil)
}

func (gr *groupMembership) Endorse(c echo.Context) error {
	ctx := c.Request().Context()

	member, err := ResolveValidMember(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceProgression, err := do.Invoke[*services.ServiceProgression](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	application, err := serviceProgression.Endorse(ctx, c.Param("application"), member.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, application, nil)
}

func (gr *groupMembership) GetApplication(c echo.Context) error {
	ctx := c.Request().Context()

	member, err := ResolveValidMember(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceProgression, err := do.Invoke[*services.ServiceProgression](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	application, err := serviceProgression.GetApplication(ctx, c.Param("application"))
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	// applicants see their own application; endorser tiers see any
	if application.MemberID != member.ID && !member.Tier.AtLeast(models.TierMaster) {
		return httpx.RestAbort(c, nil, errorx.Wrap(services.ErrNotFound, errorx.NotExist))
	}

	return httpx.RestAbort(c, application, nil)
}

func (gr *groupMembership) ToggleVolunteer(c echo.Context) error {
	ctx := c.Request().Context()

	member, err := ResolveValidMember(ctx, gr.container)
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

	updated, err := serviceMember.ToggleVolunteer(ctx, member.ID, body.Volunteer, member.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, updated, nil)
}
