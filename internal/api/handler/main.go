package handler

import (
	"net/http"

	"bskmt/internal/interfaces"
	"bskmt/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container   *do.Injector
	Mode        string
	Origins     []string
	AdminAPIKey string
	AdminRate   int
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "🏍️")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		authentication, err := do.Invoke[*services.Authentication](cfg.Container)
		if err != nil {
			return nil, err
		}

		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)
		routesAPIv1.Use(Authn(authentication)) // Authn will NOT terminate unauthenticated request.

		m := groupMembership{cfg.Container}
		routesAPIv1.GET("/membership/me", m.Me)
		routesAPIv1.GET("/membership/requirements", m.Requirements)
		routesAPIv1.POST("/membership/upgrade", m.RequestUpgrade)
		routesAPIv1.GET("/membership/history", m.History)
		routesAPIv1.POST("/membership/volunteer", m.ToggleVolunteer)
		routesAPIv1.POST("/membership/leader/applications", m.ApplyForLeader)
		routesAPIv1.GET("/membership/leader/applications/:application", m.GetApplication)
		routesAPIv1.POST("/membership/leader/applications/:application/endorse", m.Endorse)

		p := groupPoints{cfg.Container}
		routesAPIv1.GET("/points/balance", p.Balance)
		routesAPIv1.GET("/points/history", p.History)

		rw := groupReward{cfg.Container}
		routesAPIv1.GET("/rewards", rw.GetRewards)
		routesAPIv1.POST("/rewards/:reward/redeem", rw.Redeem)
		routesAPIv1.GET("/redemptions", rw.Redemptions)
		routesAPIv1.POST("/redemptions/:redemption/cancel", rw.CancelRedemption)

		l := groupLeaderboard{cfg.Container}
		routesAPIv1.GET("/leaderboard", l.GetLeaderboard)
		routesAPIv1.GET("/leaderboard/me", l.Me)
	}

	routesAdmin := r.Group("/api/v1/admin")
	{
		limiter, err := do.Invoke[interfaces.Limiter](cfg.Container)
		if err != nil {
			return nil, err
		}

		routesAdmin.Use(AuthnAdmin(cfg.AdminAPIKey, limiter, cfg.AdminRate))

		a := groupAdmin{cfg.Container}
		routesAdmin.POST("/members", a.CreateMember)
		routesAdmin.POST("/members/:member/points", a.GrantPoints)
		routesAdmin.POST("/members/:member/attendance", a.AwardAttendance)
		routesAdmin.DELETE("/members/:member/attendance/:event", a.RevokeAttendance)
		routesAdmin.POST("/members/:member/reconcile", a.Reconcile)
		routesAdmin.POST("/members/:member/tier", a.OverrideTier)
		routesAdmin.POST("/members/:member/volunteer", a.ToggleVolunteer)
		routesAdmin.POST("/members/:member/mandate/renew", a.RenewMandate)

		routesAdmin.POST("/rewards", a.CreateReward)
		routesAdmin.PUT("/rewards/:reward", a.EditReward)
		routesAdmin.POST("/redemptions/:redemption/state", a.AdvanceRedemption)

		routesAdmin.POST("/applications/:application/evaluate", a.SubmitForEvaluation)
		routesAdmin.POST("/applications/:application/ratify", a.RatifyApplication)
		routesAdmin.POST("/applications/:application/reject", a.RejectApplication)

		routesAdmin.PUT("/config/:key", a.SetConfig)
		routesAdmin.POST("/leaderboard/rebuild", a.RebuildLeaderboard)
	}

	return r, nil
}
