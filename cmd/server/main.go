package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/freshmart/accounts"
	"github.com/freshmart/accounts/config"
	"github.com/freshmart/accounts/history"
)

type App struct {
	config  *gconfig.Container[*config.BaseConfig]
	bunDB   *bun.DB
	redis   *redis.Client
	repo    accounts.RepositoryManager
	auther  accounts.HTTPAuthenticator
	history accounts.BrowseHistory
	srv     router.Server[*fiber.App]
	logger  *glog.BaseLogger
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("accounts"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(config.New()).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	if cfg.Raw().App.Debug {
		fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	WithRedis(ctx, app)

	if err := WithHTTPServer(app); err != nil {
		panic(err)
	}

	if err := WithAccountRoutes(app); err != nil {
		panic(err)
	}

	app.srv.Serve(app.Config().GetServerAddr())

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	sqldb, err := sql.Open(sqliteshim.ShimName, app.Config().Database.DSN)
	if err != nil {
		return err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := accounts.EnsureSchema(ctx, db); err != nil {
		return err
	}

	repo := accounts.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	app.bunDB = db
	app.repo = repo

	return nil
}

// WithRedis connects the redis client used for sessions and the browse
// history. When redis is unreachable the app still boots: sessions fall
// back to the in memory store and the history panel stays empty.
func WithRedis(ctx context.Context, app *App) {
	rcfg := app.Config().Redis
	lgr := app.GetLogger("redis")

	var opts *redis.Options
	if rcfg.URL != "" {
		parsed, err := redis.ParseURL(rcfg.URL)
		if err != nil {
			lgr.Error("invalid redis url", "error", err)
			return
		}
		opts = parsed
	} else if rcfg.Addr != "" {
		opts = &redis.Options{Addr: rcfg.Addr}
	} else {
		return
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		lgr.Warn("redis unreachable, using in memory sessions", "error", err)
		return
	}

	app.redis = client
	app.history = history.NewRedisBrowseHistory(client)
}

func WithHTTPServer(app *App) error {
	engine := django.New(app.Config().GetViewsDir(), ".html")

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			StrictRouting:     false,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))
	srv.Router().Use(mflash.New(mflash.ConfigDefault))

	srv.Router().Get("/", func(ctx router.Context) error {
		return ctx.Render("index", router.ViewContext{
			"title": app.Config().App.Name,
		})
	})

	app.srv = srv

	return nil
}

func WithAccountRoutes(app *App) error {
	cfg := app.Config()

	var sessions accounts.SessionStore
	if app.redis != nil {
		sessions = accounts.NewRedisSessionStore(app.redis, app.GetLogger("sessions"))
	} else {
		sessions = accounts.NewMemorySessionStore()
	}

	provider := accounts.NewUserProvider(userTrackerAdapter{users: app.repo.Users()}).
		WithLogger(app.GetLogger("auth:prv"))

	activityLogger := app.GetLogger("activity")
	activity := accounts.ActivitySinkFunc(func(_ context.Context, event accounts.ActivityEvent) error {
		activityLogger.Info("account activity",
			"event", string(event.EventType),
			"user_id", event.UserID,
			"identifier", event.Identifier,
		)
		return nil
	})

	authenticator := accounts.NewAuthenticator(provider, sessions, cfg).
		WithLogger(app.GetLogger("auth")).
		WithActivitySink(activity)

	auther, err := accounts.NewHTTPAuthenticator(authenticator, cfg)
	if err != nil {
		return err
	}
	auther.WithLogger(app.GetLogger("auth:http"))
	app.auther = auther

	tokens := accounts.NewActivationTokenService(
		[]byte(cfg.GetSigningKey()),
		time.Duration(cfg.GetActivationTokenTTL())*time.Second,
		cfg.App.Name,
		app.GetLogger("auth:activation"),
	)

	mailer := buildMailer(app)

	register := accounts.NewRegisterUserHandler(app.repo, tokens, mailer, cfg).
		WithLogger(app.GetLogger("cmd:register")).
		WithActivitySink(activity)

	activate := accounts.NewActivateUserHandler(app.repo, tokens).
		WithLogger(app.GetLogger("cmd:activate")).
		WithActivitySink(activity)

	controller := accounts.NewAccountController(
		app.repo,
		auther,
		register,
		activate,
		cfg,
		accounts.WithControllerLogger(app.GetLogger("accounts:ctrl")),
		accounts.WithBrowseHistory(app.history),
	)

	accounts.RegisterAccountRoutes(app.srv.Router(), controller)

	return nil
}

type userTrackerAdapter struct {
	users accounts.Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*accounts.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *accounts.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSuccessfulLogin(ctx context.Context, user *accounts.User) error {
	return a.users.TrackSuccessfulLogin(ctx, user)
}

func buildMailer(app *App) accounts.Mailer {
	mcfg := app.Config().Mail
	if mcfg.Provider == "sendgrid" && mcfg.APIKey != "" {
		return accounts.NewSendGridMailer(mcfg.APIKey, mcfg.FromEmail, mcfg.FromName).
			WithLogger(app.GetLogger("mail"))
	}
	return accounts.NewLogMailer(app.GetLogger("mail"))
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
