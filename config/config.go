// Package config holds the application configuration. Values load from
// config files and environment variables through go-config; the zero
// value carries development defaults so the server boots with no file
// at all.
package config

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type App struct {
	Name  string `koanf:"name" json:"name"`
	Env   string `koanf:"env" json:"env"`
	Debug bool   `koanf:"debug" json:"debug"`
}

type Server struct {
	Addr  string `koanf:"addr" json:"addr"`
	Views string `koanf:"views" json:"views"`
}

type Auth struct {
	SigningKey              string `koanf:"signing_key" json:"signing_key"`
	ActivationTokenTTL      int    `koanf:"activation_token_ttl" json:"activation_token_ttl"`
	ActivationBaseURL       string `koanf:"activation_base_url" json:"activation_base_url"`
	SessionDuration         int    `koanf:"session_duration" json:"session_duration"`
	ExtendedSessionDuration int    `koanf:"extended_session_duration" json:"extended_session_duration"`
	SessionCookieName       string `koanf:"session_cookie_name" json:"session_cookie_name"`
	RememberCookieName      string `koanf:"remember_cookie_name" json:"remember_cookie_name"`
	RememberCookieDuration  int    `koanf:"remember_cookie_duration" json:"remember_cookie_duration"`
	LoginRoute              string `koanf:"login_route" json:"login_route"`
}

type Database struct {
	Driver string `koanf:"driver" json:"driver"`
	DSN    string `koanf:"dsn" json:"dsn"`
}

type Redis struct {
	URL  string `koanf:"url" json:"url"`
	Addr string `koanf:"addr" json:"addr"`
}

type Mail struct {
	Provider  string `koanf:"provider" json:"provider"`
	APIKey    string `koanf:"api_key" json:"api_key"`
	FromEmail string `koanf:"from_email" json:"from_email"`
	FromName  string `koanf:"from_name" json:"from_name"`
}

type BaseConfig struct {
	App      App      `koanf:"app" json:"app"`
	Server   Server   `koanf:"server" json:"server"`
	Auth     Auth     `koanf:"auth" json:"auth"`
	Database Database `koanf:"database" json:"database"`
	Redis    Redis    `koanf:"redis" json:"redis"`
	Mail     Mail     `koanf:"mail" json:"mail"`
}

func New() *BaseConfig {
	return &BaseConfig{
		App: App{
			Name: "freshmart-accounts",
			Env:  "development",
		},
		Server: Server{
			Addr:  ":9092",
			Views: "./views",
		},
		Auth: Auth{
			SigningKey:              "dev-signing-key-change-me",
			ActivationTokenTTL:      3600,
			ActivationBaseURL:       "http://localhost:9092",
			SessionDuration:         24,
			ExtendedSessionDuration: 24 * 7,
			SessionCookieName:       "session_id",
			RememberCookieName:      "username",
			RememberCookieDuration:  24 * 7,
			LoginRoute:              "/login",
		},
		Database: Database{
			Driver: "sqlite",
			DSN:    "file:accounts.db?cache=shared&_pragma=foreign_keys(1)",
		},
		Redis: Redis{
			Addr: "localhost:6379",
		},
		Mail: Mail{
			Provider:  "log",
			FromEmail: "noreply@freshmart.local",
			FromName:  "FreshMart",
		},
	}
}

func (c *BaseConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Auth),
		validation.Field(&c.Database),
	)
}

func (s Server) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Addr, validation.Required),
	)
}

func (a Auth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SigningKey, validation.Required),
		validation.Field(&a.ActivationTokenTTL, validation.Min(60)),
		validation.Field(&a.SessionCookieName, validation.Required),
		validation.Field(&a.RememberCookieName, validation.Required),
		validation.Field(&a.LoginRoute, validation.Required),
	)
}

func (d Database) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required),
		validation.Field(&d.DSN, validation.Required),
	)
}

func (c *BaseConfig) GetSigningKey() string           { return c.Auth.SigningKey }
func (c *BaseConfig) GetActivationTokenTTL() int      { return c.Auth.ActivationTokenTTL }
func (c *BaseConfig) GetSessionDuration() int         { return c.Auth.SessionDuration }
func (c *BaseConfig) GetExtendedSessionDuration() int { return c.Auth.ExtendedSessionDuration }
func (c *BaseConfig) GetSessionCookieName() string    { return c.Auth.SessionCookieName }
func (c *BaseConfig) GetRememberCookieName() string   { return c.Auth.RememberCookieName }
func (c *BaseConfig) GetRememberCookieDuration() int  { return c.Auth.RememberCookieDuration }
func (c *BaseConfig) GetActivationBaseURL() string    { return c.Auth.ActivationBaseURL }
func (c *BaseConfig) GetLoginRoute() string           { return c.Auth.LoginRoute }

func (c *BaseConfig) GetServerAddr() string { return c.Server.Addr }
func (c *BaseConfig) GetViewsDir() string   { return c.Server.Views }
