package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultActivationTokenTTL is how long an activation link stays valid.
const DefaultActivationTokenTTL = 3600 * time.Second

const activationAudience = "accounts:activation"

// ActivationTokenService mints and verifies the signed, self expiring
// tokens embedded in account activation links. Tokens are not persisted;
// the signature and the embedded expiry are the only state.
type ActivationTokenService struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	logger     Logger
}

// NewActivationTokenService creates a new ActivationTokenService instance
func NewActivationTokenService(signingKey []byte, ttl time.Duration, issuer string, logger Logger) *ActivationTokenService {
	if logger == nil {
		logger = defLogger{}
	}
	if ttl == 0 {
		ttl = DefaultActivationTokenTTL
	}
	return &ActivationTokenService{
		signingKey: signingKey,
		ttl:        ttl,
		issuer:     issuer,
		logger:     logger,
	}
}

// Generate signs a token carrying the user id, valid for the configured TTL.
func (ts *ActivationTokenService) Generate(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Issuer:    ts.issuer,
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{activationAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign activation token")
	}

	return signedString, nil
}

// Decode verifies signature and expiry and returns the embedded user id.
// Expired tokens fail with ErrActivationExpired; anything else that does
// not verify fails with ErrActivationInvalid.
func (ts *ActivationTokenService) Decode(tokenString string) (uuid.UUID, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithAudience(activationAudience),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("activation decode encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrActivationExpired
		}
		return uuid.Nil, ErrActivationInvalid
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		ts.logger.Error("activation decode could not read claims")
		return uuid.Nil, ErrActivationInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrActivationInvalid
	}

	return userID, nil
}

// TTL exposes the configured token lifetime, mostly for email copy.
func (ts *ActivationTokenService) TTL() time.Duration {
	return ts.ttl
}
