package accounts

import (
	"github.com/goliatone/go-errors"
	"github.com/golang-jwt/jwt/v5"
)

// Text codes surfaced alongside structured errors so templates and logs
// can key off a stable identifier rather than the message text.
const (
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeAccountNotActive   = "ACCOUNT_NOT_ACTIVE"
	TextCodeTooManyAttempts    = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeUsernameTaken      = "USERNAME_TAKEN"
	TextCodeActivationExpired  = "ACTIVATION_EXPIRED"
	TextCodeActivationInvalid  = "ACTIVATION_INVALID"
	TextCodeSessionNotFound    = "SESSION_NOT_FOUND"
	TextCodeSessionDecodeError = "SESSION_DECODE_ERROR"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
)

// ErrMismatchedHashAndPassword is returned when the supplied password does
// not match the stored hash. Lookups for unknown users collapse into the
// same error so callers cannot probe for registered usernames.
var ErrMismatchedHashAndPassword = errors.New("incorrect username or password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrAccountNotActive is returned when credentials check out but the
// account has not been activated yet. No session is established.
var ErrAccountNotActive = errors.New("account is not activated", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeAccountNotActive)

// ErrTooManyLoginAttempts is returned while a cool down window is active.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTooManyAttempts)

// ErrUsernameTaken is returned when registering a username that exists.
var ErrUsernameTaken = errors.New("username already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameTaken)

// ErrActivationExpired means the activation link outlived its TTL.
var ErrActivationExpired = errors.New("activation link expired", errors.CategoryAuth).
	WithTextCode(TextCodeActivationExpired)

// ErrActivationInvalid covers tampered, malformed, or otherwise
// unverifiable activation tokens, and tokens referencing unknown users.
var ErrActivationInvalid = errors.New("invalid activation link", errors.CategoryAuth).
	WithTextCode(TextCodeActivationInvalid)

// ErrUnableToFindSession is the error when the request carries no session
// cookie or the token is no longer in the store.
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeSessionNotFound)

// ErrUnableToDecodeSession means the stored session record could not be
// decoded back into a session object.
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryInternal).
	WithTextCode(TextCodeSessionDecodeError)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// IsActivationExpiredError will check for expired activation tokens,
// including raw errors from the JWT layer.
func IsActivationExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrActivationExpired) || errors.Is(err, jwt.ErrTokenExpired)
}

// IsActivationInvalidError will check for malformed or tampered tokens.
func IsActivationInvalidError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrActivationInvalid) ||
		errors.Is(err, jwt.ErrTokenMalformed) ||
		errors.Is(err, jwt.ErrTokenSignatureInvalid) ||
		errors.Is(err, jwt.ErrTokenUnverifiable)
}

// IsConflictError reports whether err is a conflict-category error. The
// repository layer classifies uniqueness violations by re-reading inside
// the transaction, so no driver message parsing happens here.
func IsConflictError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUsernameTaken) {
		return true
	}
	var richErr *errors.Error
	return errors.As(err, &richErr) && richErr.Category == errors.CategoryConflict
}
