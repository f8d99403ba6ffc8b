// AngelaMos | 2026
// verifier.go

package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/anujtyagi85/cleanintel-loader/internal/config"
	"github.com/anujtyagi85/cleanintel-loader/internal/core"
	"github.com/anujtyagi85/cleanintel-loader/internal/middleware"
)

// Verifier validates HS256 access tokens issued by the hosted auth provider.
// Signup, login, sessions and token issuance all live with the provider;
// this service only proves a presented token is genuine and extracts the
// subscriber identity from it.
type Verifier struct {
	key    jwk.Key
	config config.AuthConfig
}

func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	key, err := jwk.Import([]byte(cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("import signing secret: %w", err)
	}

	if setErr := key.Set(jwk.AlgorithmKey, jwa.HS256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	return &Verifier{key: key, config: cfg}, nil
}

func (v *Verifier) VerifyAccessToken(
	ctx context.Context,
	tokenString string,
) (*middleware.Identity, error) {
	parseOpts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256(), v.key),
		jwt.WithValidate(true),
	}
	if v.config.Issuer != "" {
		parseOpts = append(parseOpts, jwt.WithIssuer(v.config.Issuer))
	}
	if v.config.Audience != "" {
		parseOpts = append(parseOpts, jwt.WithAudience(v.config.Audience))
	}

	token, err := jwt.Parse([]byte(tokenString), parseOpts...)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	var email string
	if err := token.Get("email", &email); err != nil || email == "" {
		return nil, fmt.Errorf(
			"verify token: missing email claim: %w",
			core.ErrTokenInvalid,
		)
	}

	// The provider marks operators with an app_role claim; everyone else is
	// an ordinary subscriber.
	var role string
	if err := token.Get("app_role", &role); err != nil || role == "" {
		role = "user"
	}

	return &middleware.Identity{
		UserID: subject,
		Email:  strings.ToLower(email),
		Role:   role,
	}, nil
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}

var _ middleware.TokenVerifier = (*Verifier)(nil)
