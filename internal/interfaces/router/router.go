package router

import (
	"context"
	"net/http"

	acctsvc "fortyacres-backend/internal/application/accounts"
	authsvc "fortyacres-backend/internal/application/auth"
	healthsvc "fortyacres-backend/internal/application/health"
	invsvc "fortyacres-backend/internal/application/investments"
	"fortyacres-backend/internal/application/notifications"
	tiersvc "fortyacres-backend/internal/application/tiers"
	txsvc "fortyacres-backend/internal/application/transactions"
	usersvc "fortyacres-backend/internal/application/users"
	wsvc "fortyacres-backend/internal/application/withdrawals"
	"fortyacres-backend/internal/config"
	"fortyacres-backend/internal/domain"
	"fortyacres-backend/internal/infrastructure/database"
	accthandler "fortyacres-backend/internal/interfaces/handlers/accounts"
	authhandler "fortyacres-backend/internal/interfaces/handlers/auth"
	healthhandler "fortyacres-backend/internal/interfaces/handlers/health"
	invhandler "fortyacres-backend/internal/interfaces/handlers/investments"
	payhandler "fortyacres-backend/internal/interfaces/handlers/payments"
	tierhandler "fortyacres-backend/internal/interfaces/handlers/tiers"
	txhandler "fortyacres-backend/internal/interfaces/handlers/transactions"
	userhandler "fortyacres-backend/internal/interfaces/handlers/users"
	whandler "fortyacres-backend/internal/interfaces/handlers/withdrawals"
	"fortyacres-backend/internal/middleware"
	"fortyacres-backend/internal/pkg/clock"
	"fortyacres-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services are the long-lived application services behind the routes.
// cmd/api uses Investments to schedule lot releases.
type Services struct {
	Tiers       *tiersvc.Service
	Investments *invsvc.Service
	Withdrawals *wsvc.Service
}

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) PingContext(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	_, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}

	app, _ := Build(cfg, db, rdb)
	return app, db, rdb, nil
}

// Build registers middleware and routes on a new app. Routes that need the
// database are only mounted when db is non-nil.
func Build(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*fiber.App, *Services) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}

	var svcs Services
	var investments *invsvc.Service
	if db != nil {
		investments = &invsvc.Service{DB: db, Clock: clock.System{}}
		svcs.Investments = investments

		// Stripe signs the raw body, so the webhook sits outside the session.
		stripeWebhook := &payhandler.WebhookHandler{Investments: investments, WebhookSecret: cfg.StripeWebhookSecret}
		app.Post("/api/v1/stripe/webhook", stripeWebhook.HandleWebhook)
	}

	if rdb != nil {
		app.Use(middleware.SessionWithClient(rdb))
	}
	app.Use(middleware.HealthMarker(rdb))

	healthDeps := healthsvc.Deps{Rdb: rdb}
	if db != nil {
		healthDeps.DB = &gormDBPinger{db: db}
		healthDeps.PendingWithdrawals = func(ctx context.Context) (int64, error) {
			var n int64
			err := db.WithContext(ctx).Model(&domain.WithdrawalRequest{}).
				Where("status = ?", domain.WithdrawalStatusPending).Count(&n).Error
			return n, err
		}
	}
	hh := &healthhandler.Handlers{Deps: healthDeps, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	notifier := &notifications.Notifier{
		Mailer:        &notifications.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom},
		ReviewerEmail: cfg.ReviewerEmail,
	}

	if db == nil {
		return app, &svcs
	}

	tiers := &tiersvc.Service{DB: db, Rdb: rdb, TTL: cfg.TierCacheTTL}
	svcs.Tiers = tiers
	th := &tierhandler.Handlers{Service: tiers}
	app.Get("/api/v1/tiers", th.List)

	// Everything below needs a session store.
	if rdb == nil {
		return app, &svcs
	}

	users := &usersvc.Service{DB: db, Rdb: rdb}
	ah := &authhandler.Handlers{
		UserFinder: &authsvc.GormUserFinder{DB: db},
		Users:      users,
		Welcomer:   notifier,
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Post("/register", ah.Register)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	uh := &userhandler.Handlers{Service: users}
	ug := app.Group("/api/v1/users", middleware.RequireAuth())
	ug.Get("/me", uh.ViewMe)
	ug.Patch("/me", uh.UpdateMe)
	ug.Patch("/role", middleware.AuthorizePermission(constants.ManageUsers), uh.UpdateRole)
	ug.Get("/:id", middleware.AuthorizePermission(constants.ManageUsers), uh.View)

	acch := &accthandler.Handlers{Service: &acctsvc.Service{DB: db, Clock: clock.System{}}}
	acg := app.Group("/api/v1/accounts", middleware.RequireAuth())
	acg.Get("/me", middleware.AuthorizePermission(constants.ViewAccount), acch.Me)
	acg.Patch("/:id/status", middleware.AuthorizePermission(constants.ManageAccounts), acch.SetStatus)

	ih := &invhandler.Handlers{
		Service:     investments,
		IntentMaker: &invsvc.StripeCreator{SecretKey: cfg.StripeSecretKey},
	}
	pg := app.Group("/api/v1/properties")
	pg.Get("/", ih.ListProperties)
	pg.Get("/:id", ih.GetProperty)
	pg.Post("/", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageProperties), ih.CreateProperty)

	ig := app.Group("/api/v1/investments", middleware.RequireAuth())
	ig.Post("/create-intent", middleware.AuthorizePermission(constants.BuyShares), ih.CreateIntent)
	ig.Post("/record", middleware.AuthorizePermission(constants.RecordInvestment), ih.Record)

	txh := &txhandler.Handlers{Service: &txsvc.Service{DB: db}}
	app.Get("/api/v1/transactions", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ViewAccount), txh.GetTransactions)

	withdrawals := &wsvc.Service{
		DB:       db,
		Clock:    clock.System{},
		Fees:     wsvc.FeePolicy{Rate: cfg.WithdrawalFeeRate, Minimum: cfg.WithdrawalMinFee},
		Notifier: notifier,
	}
	svcs.Withdrawals = withdrawals
	wh := &whandler.Handlers{Service: withdrawals}
	wg := app.Group("/api/v1/withdrawals", middleware.RequireAuth())
	wg.Post("/preview", middleware.AuthorizePermission(constants.RequestWithdrawal), wh.Preview)
	wg.Post("/submit", middleware.AuthorizePermission(constants.RequestWithdrawal), wh.Submit)
	wg.Get("/history", wh.History)
	wg.Get("/view/:id", wh.View)
	wg.Get("/review", middleware.AuthorizePermission(constants.ReviewWithdrawal), wh.ReviewQueue)
	wg.Patch("/:id/approve", middleware.AuthorizePermission(constants.ReviewWithdrawal), wh.Approve)
	wg.Patch("/:id/reject", middleware.AuthorizePermission(constants.ReviewWithdrawal), wh.Reject)
	wg.Patch("/:id/complete", middleware.AuthorizePermission(constants.CompleteWithdrawal), wh.Complete)

	return app, &svcs
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
