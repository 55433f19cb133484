package accounts

import (
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// SessionContextKey is where ProtectedRoute stores the resolved session
// in the request locals.
const SessionContextKey = "account_session"

// DefaultRememberCookieDuration is how long the remember-username cookie
// persists when the login form asks for it.
const DefaultRememberCookieDuration = 7 * 24 * time.Hour

type RouteAuthenticator struct {
	auth             Authenticator
	cfg              Config
	cookieDuration   time.Duration
	extendedDuration time.Duration
	rememberDuration time.Duration
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := 24 * time.Hour
	if cfg.GetSessionDuration() > 0 {
		cookieDuration = time.Duration(cfg.GetSessionDuration()) * time.Hour
	}

	extendedDuration := cookieDuration
	if cfg.GetExtendedSessionDuration() > 0 {
		extendedDuration = time.Duration(cfg.GetExtendedSessionDuration()) * time.Hour
	}

	rememberDuration := DefaultRememberCookieDuration
	if cfg.GetRememberCookieDuration() > 0 {
		rememberDuration = time.Duration(cfg.GetRememberCookieDuration()) * time.Hour
	}

	a := &RouteAuthenticator{
		cfg:              cfg,
		auth:             auther,
		Logger:           defLogger{},
		cookieDuration:   cookieDuration,
		extendedDuration: extendedDuration,
		rememberDuration: rememberDuration,
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	a.Logger = logger
	return a
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// ProtectedRoute resolves the session cookie against the store and parks
// the session in the request locals. Requests without a live session are
// handed to the error handler.
func (a *RouteAuthenticator) ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = a.AuthErrorHandler
	}
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			session, err := a.CurrentSession(c)
			if err != nil {
				return errorHandler(c, err)
			}

			c.Locals(SessionContextKey, session)
			return hf(c)
		}
	}
}

// CurrentSession reads the session cookie and looks the token up in the
// session store.
func (a *RouteAuthenticator) CurrentSession(c router.Context) (Session, error) {
	token := c.Cookies(a.cfg.GetSessionCookieName())
	if token == "" {
		return nil, ErrUnableToFindSession
	}
	return a.auth.SessionFromToken(c.Context(), token)
}

func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) error {
	token, err := a.auth.Login(
		ctx.Context(),
		payload.GetIdentifier(),
		payload.GetPassword(),
		payload.GetExtendedSession(),
	)
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return err
	}

	duration := a.cookieDuration
	if payload.GetExtendedSession() {
		duration = a.extendedDuration
	}

	a.setCookie(ctx, a.cfg.GetSessionCookieName(), token, duration)
	return nil
}

// Logout destroys the server side session and clears the cookie. Safe to
// call without a session; it degrades to the redirect side effect only.
func (a *RouteAuthenticator) Logout(ctx router.Context) error {
	token := ctx.Cookies(a.cfg.GetSessionCookieName())
	if err := a.auth.Logout(ctx.Context(), token); err != nil {
		a.Logger.Error("Logout error: %s", err)
		return err
	}

	a.cookieDel(ctx, a.cfg.GetSessionCookieName())
	return nil
}

// RememberUsername persists the plaintext username cookie for the login
// form prefill, or clears it when remember was not requested.
func (a *RouteAuthenticator) RememberUsername(ctx router.Context, username string, remember bool) {
	name := a.cfg.GetRememberCookieName()
	if remember {
		a.setCookie(ctx, name, username, a.rememberDuration)
		return
	}
	a.cookieDel(ctx, name)
}

// RememberedUsername returns the value of the remember cookie, empty when
// not present.
func (a *RouteAuthenticator) RememberedUsername(ctx router.Context) string {
	return ctx.Cookies(a.cfg.GetRememberCookieName())
}

// RedirectTarget resolves the post-login destination from the `next`
// query parameter. Only relative paths are honored so the parameter
// cannot bounce users to another host.
func (a *RouteAuthenticator) RedirectTarget(ctx router.Context, def string) string {
	next := ctx.Query("next", "")
	if next == "" {
		return def
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return def
	}
	return next
}

func (a *RouteAuthenticator) setCookie(c router.Context, name, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	a.Logger.Info(
		"Authentication error, redirecting to login",
		"error", err.Error(),
		"path", c.OriginalURL(),
	)

	target := a.cfg.GetLoginRoute()
	if original := c.OriginalURL(); original != "" && strings.HasPrefix(original, "/") {
		target = target + "?next=" + original
	}

	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return c.Redirect(target, statusCode)
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Route error handler",
		"error", richErr.Message,
		"category", richErr.Category,
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		return c.Status(richErr.Code).Render("errors/500", router.ViewContext{
			"error": richErr,
		})
	}
}

var _ HTTPAuthenticator = (*RouteAuthenticator)(nil)
