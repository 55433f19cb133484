package accounts

import (
	"net/http"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	"github.com/nyaruka/phonenumbers"
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9][\w.\-]*@[a-z0-9\-]+(\.[a-z]{2,5}){1,2}$`)
	phonePattern = regexp.MustCompile(`^1[34578]\d{9}$`)
	zipPattern   = regexp.MustCompile(`^\d{6}$`)
)

// RecentlyViewedLimit caps the product history shown on the profile page.
const RecentlyViewedLimit = 5

// firstFormError flattens an ozzo validation result into the single
// message the form shows. Fields are visited in display order, and a
// missing field beats a malformed one so the user supplies everything
// before formats get nitpicked.
func firstFormError(err error, fields ...string) string {
	if err == nil {
		return ""
	}
	errs, ok := err.(validation.Errors)
	if !ok {
		return "incomplete data"
	}
	for _, field := range fields {
		if fieldErr, found := errs[field]; found && fieldErr.Error() == "incomplete data" {
			return "incomplete data"
		}
	}
	for _, field := range fields {
		if fieldErr, found := errs[field]; found {
			return fieldErr.Error()
		}
	}
	return "incomplete data"
}

type RegistrationCreatePayload struct {
	Username string `json:"user_name" form:"user_name"`
	Password string `json:"pwd" form:"pwd"`
	Email    string `json:"email" form:"email"`
	Allow    string `json:"allow" form:"allow"`
}

func (p RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required.Error("incomplete data")),
		validation.Field(&p.Password, validation.Required.Error("incomplete data")),
		validation.Field(&p.Email,
			validation.Required.Error("incomplete data"),
			validation.Match(emailPattern).Error("invalid email format"),
		),
		validation.Field(&p.Allow,
			validation.Required.Error("please agree to the terms of service"),
			validation.In("on").Error("please agree to the terms of service"),
		),
	)
}

// formError maps the validation result to the message the registration
// page shows, one failure at a time.
func (p RegistrationCreatePayload) formError() string {
	return firstFormError(p.Validate(), "user_name", "pwd", "email", "allow")
}

type LoginRequest struct {
	Identifier      string `json:"username" form:"username"`
	Password        string `json:"pwd" form:"pwd"`
	Remember        string `json:"remember" form:"remember"`
	ExtendedSession bool   `json:"extended_session" form:"extended_session"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required.Error("incomplete data")),
		validation.Field(&r.Password, validation.Required.Error("incomplete data")),
	)
}

func (r LoginRequest) formError() string {
	return firstFormError(r.Validate(), "username", "pwd")
}

func (r LoginRequest) GetIdentifier() string    { return r.Identifier }
func (r LoginRequest) GetPassword() string      { return r.Password }
func (r LoginRequest) GetExtendedSession() bool { return r.ExtendedSession }
func (r LoginRequest) RememberUsername() bool   { return r.Remember == "on" }

type AddressCreatePayload struct {
	Receiver string `json:"receiver" form:"receiver"`
	Addr     string `json:"addr" form:"addr"`
	ZipCode  string `json:"zip_code" form:"zip_code"`
	Phone    string `json:"phone" form:"phone"`
}

func (p AddressCreatePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Receiver, validation.Required.Error("incomplete data")),
		validation.Field(&p.Addr, validation.Required.Error("incomplete data")),
		validation.Field(&p.ZipCode, validation.Match(zipPattern).Error("invalid zip code")),
		validation.Field(&p.Phone,
			validation.Required.Error("incomplete data"),
			validation.Match(phonePattern).Error("invalid phone number"),
		),
	)
}

// formError mirrors the address page messages. The zip code is optional,
// the rest is not.
func (p AddressCreatePayload) formError() string {
	return firstFormError(p.Validate(), "receiver", "addr", "zip_code", "phone")
}

// normalizedPhone runs the raw digits through the phone number library so
// the stored value is the canonical national form.
func (p AddressCreatePayload) normalizedPhone() (string, error) {
	num, err := phonenumbers.Parse(p.Phone, "CN")
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryValidation, "invalid phone number")
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", errors.New("invalid phone number", errors.CategoryValidation)
	}
	return phonenumbers.GetNationalSignificantNumber(num), nil
}

// AccountController serves the account pages: registration, activation,
// login, profile, and the address book.
type AccountController struct {
	Logger     Logger
	repo       RepositoryManager
	auth       HTTPAuthenticator
	register   *RegisterUserHandler
	activate   *ActivateUserHandler
	history    BrowseHistory
	loginRoute string
}

type ControllerOption func(*AccountController)

func WithControllerLogger(logger Logger) ControllerOption {
	return func(c *AccountController) {
		c.Logger = logger
	}
}

func WithBrowseHistory(history BrowseHistory) ControllerOption {
	return func(c *AccountController) {
		c.history = history
	}
}

func NewAccountController(
	repo RepositoryManager,
	auth HTTPAuthenticator,
	register *RegisterUserHandler,
	activate *ActivateUserHandler,
	cfg Config,
	opts ...ControllerOption,
) *AccountController {
	c := &AccountController{
		Logger:     defLogger{},
		repo:       repo,
		auth:       auth,
		register:   register,
		activate:   activate,
		loginRoute: cfg.GetLoginRoute(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterAccountRoutes mounts the account pages on the router. The
// profile and address pages sit behind the session middleware.
func RegisterAccountRoutes[T any](r router.Router[T], c *AccountController) {
	r.Get("/register", c.RegistrationShow)
	r.Post("/register", c.RegistrationCreate)
	r.Get("/activate/:token", c.ActivateAccount)

	r.Get("/login", c.LoginShow)
	r.Post("/login", c.LoginPost)
	r.Get("/logout", c.LogOut)

	protected := c.auth.ProtectedRoute(nil)
	r.Get("/profile", c.ProfileShow, protected)
	r.Get("/address", c.AddressShow, protected)
	r.Post("/address", c.AddressCreate, protected)
}

func (c *AccountController) RegistrationShow(ctx router.Context) error {
	return ctx.Render("register", router.ViewContext{})
}

func (c *AccountController) RegistrationCreate(ctx router.Context) error {
	payload := RegistrationCreatePayload{}
	if err := ctx.Bind(&payload); err != nil {
		c.Logger.Error("RegistrationCreate bind error", "error", err)
		return c.renderRegister(ctx, payload, "incomplete data")
	}

	if msg := payload.formError(); msg != "" {
		return c.renderRegister(ctx, payload, msg)
	}

	_, err := c.register.Execute(ctx.Context(), RegisterUserMessage{
		Username: payload.Username,
		Password: payload.Password,
		Email:    payload.Email,
	})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) || IsConflictError(err) {
			return c.renderRegister(ctx, payload, "username already exists")
		}
		c.Logger.Error("RegistrationCreate error", "error", err)
		return c.renderRegister(ctx, payload, "unable to create account, try again later")
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "account created, check your email for the activation link",
	}).Redirect("/", http.StatusSeeOther)
}

func (c *AccountController) renderRegister(ctx router.Context, payload RegistrationCreatePayload, msg string) error {
	return flash.WithError(ctx, router.ViewContext{
		"error_message": msg,
	}).Render("register", router.ViewContext{
		"errmsg":    msg,
		"user_name": payload.Username,
		"email":     payload.Email,
	})
}

// ActivateAccount handles the link from the activation email. Activation
// is idempotent; a second visit lands on the login page like the first.
func (c *AccountController) ActivateAccount(ctx router.Context) error {
	token := ctx.Param("token", "")

	_, err := c.activate.Execute(ctx.Context(), token)
	if err != nil {
		msg := "invalid activation link"
		if IsActivationExpiredError(err) {
			msg = "activation link expired"
		}
		c.Logger.Info("ActivateAccount rejected", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message": msg,
		}).Render("register", router.ViewContext{"errmsg": msg})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "account activated, you can log in now",
	}).Redirect(c.loginRoute, http.StatusSeeOther)
}

// LoginShow prefills the username from the remember cookie when present.
func (c *AccountController) LoginShow(ctx router.Context) error {
	username := c.auth.RememberedUsername(ctx)
	checked := ""
	if username != "" {
		checked = "checked"
	}
	return ctx.Render("login", router.ViewContext{
		"username": username,
		"checked":  checked,
	})
}

func (c *AccountController) LoginPost(ctx router.Context) error {
	payload := LoginRequest{}
	if err := ctx.Bind(&payload); err != nil {
		c.Logger.Error("LoginPost bind error", "error", err)
		return c.renderLogin(ctx, payload, "incomplete data")
	}

	if msg := payload.formError(); msg != "" {
		return c.renderLogin(ctx, payload, msg)
	}

	if err := c.auth.Login(ctx, payload); err != nil {
		msg := "incorrect username or password"
		switch {
		case errors.Is(err, ErrAccountNotActive):
			msg = "account is not activated"
		case errors.Is(err, ErrTooManyLoginAttempts):
			msg = "too many failed attempts, try again later"
		}
		c.Logger.Info("LoginPost rejected", "identifier", payload.Identifier)
		return c.renderLogin(ctx, payload, msg)
	}

	c.auth.RememberUsername(ctx, payload.Identifier, payload.RememberUsername())

	target := c.auth.RedirectTarget(ctx, "/")
	return ctx.Redirect(target, http.StatusSeeOther)
}

func (c *AccountController) renderLogin(ctx router.Context, payload LoginRequest, msg string) error {
	return flash.WithError(ctx, router.ViewContext{
		"error_message": msg,
	}).Render("login", router.ViewContext{
		"errmsg":   msg,
		"username": payload.Identifier,
	})
}

func (c *AccountController) LogOut(ctx router.Context) error {
	if err := c.auth.Logout(ctx); err != nil {
		c.Logger.Error("LogOut error", "error", err)
	}
	return ctx.Redirect("/", http.StatusSeeOther)
}

// ProfileShow renders the account page: identity, default shipping
// address, and the recently viewed products.
func (c *AccountController) ProfileShow(ctx router.Context) error {
	session, err := GetRouterSession(ctx, "")
	if err != nil {
		return ctx.Redirect(c.loginRoute, http.StatusSeeOther)
	}

	user, err := c.repo.Users().GetByIdentifier(ctx.Context(), session.GetUserID())
	if err != nil {
		c.Logger.Error("ProfileShow user lookup", "error", err)
		return ctx.Status(http.StatusInternalServerError).Render("errors/500", router.ViewContext{})
	}

	vc := router.ViewContext{
		"page":     "user",
		"username": user.Username,
		"email":    user.Email,
	}

	address, err := c.repo.Addresses().GetDefault(ctx.Context(), user.ID)
	if err == nil {
		vc["address"] = address
	} else if !repository.IsRecordNotFound(err) {
		c.Logger.Error("ProfileShow address lookup", "error", err)
	}

	vc["products"] = c.recentProducts(ctx, session)

	return ctx.Render("profile", vc)
}

func (c *AccountController) recentProducts(ctx router.Context, session Session) []*Product {
	if c.history == nil || !HasUserUUID(session) {
		return nil
	}

	uid, _ := session.GetUserUUID()

	ids, err := c.history.Recent(ctx.Context(), uid, RecentlyViewedLimit)
	if err != nil {
		c.Logger.Error("recentProducts history", "error", err)
		return nil
	}

	products, err := c.repo.Products().ResolveMany(ctx.Context(), ids)
	if err != nil {
		c.Logger.Error("recentProducts resolve", "error", err)
		return nil
	}
	return products
}

func (c *AccountController) AddressShow(ctx router.Context) error {
	session, err := GetRouterSession(ctx, "")
	if err != nil {
		return ctx.Redirect(c.loginRoute, http.StatusSeeOther)
	}

	uid, err := session.GetUserUUID()
	if err != nil {
		return ctx.Redirect(c.loginRoute, http.StatusSeeOther)
	}

	vc := router.ViewContext{"page": "address"}

	address, err := c.repo.Addresses().GetDefault(ctx.Context(), uid)
	if err == nil {
		vc["address"] = address
	} else if !repository.IsRecordNotFound(err) {
		c.Logger.Error("AddressShow lookup", "error", err)
	}

	return ctx.Render("address", vc)
}

func (c *AccountController) AddressCreate(ctx router.Context) error {
	session, err := GetRouterSession(ctx, "")
	if err != nil {
		return ctx.Redirect(c.loginRoute, http.StatusSeeOther)
	}

	uid, err := session.GetUserUUID()
	if err != nil {
		return ctx.Redirect(c.loginRoute, http.StatusSeeOther)
	}

	payload := AddressCreatePayload{}
	if err := ctx.Bind(&payload); err != nil {
		c.Logger.Error("AddressCreate bind error", "error", err)
		return c.renderAddress(ctx, payload, "incomplete data")
	}

	if msg := payload.formError(); msg != "" {
		return c.renderAddress(ctx, payload, msg)
	}

	phone, err := payload.normalizedPhone()
	if err != nil {
		return c.renderAddress(ctx, payload, "invalid phone number")
	}

	address := &Address{
		Receiver: payload.Receiver,
		Addr:     payload.Addr,
		ZipCode:  payload.ZipCode,
		Phone:    phone,
	}

	if _, err := c.repo.Addresses().CreateForUser(ctx.Context(), uid, address); err != nil {
		c.Logger.Error("AddressCreate error", "error", err)
		return c.renderAddress(ctx, payload, "unable to save address, try again later")
	}

	return ctx.Redirect("/address", http.StatusSeeOther)
}

func (c *AccountController) renderAddress(ctx router.Context, payload AddressCreatePayload, msg string) error {
	return flash.WithError(ctx, router.ViewContext{
		"error_message": msg,
	}).Render("address", router.ViewContext{
		"page":     "address",
		"errmsg":   msg,
		"receiver": payload.Receiver,
		"addr":     payload.Addr,
		"zip_code": payload.ZipCode,
		"phone":    payload.Phone,
	})
}
