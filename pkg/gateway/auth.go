package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Common errors for JWT operations.
var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrTokenSigningFailed  = errors.New("failed to sign token")
	ErrInvalidSecretLength = fmt.Errorf("JWT secret must be at least %d characters", MinJWTSecretLength)
)

// Issuer is the iss claim of gateway tokens.
const Issuer = "awsasync"

// Claims are the JWT claims accepted by the gateway.
type Claims struct {
	jwt.RegisteredClaims

	// Services restricts the token to the named services. Empty allows all.
	Services []string `json:"services,omitempty"`
}

// Allows reports whether the token may invoke operations of service.
func (c *Claims) Allows(service string) bool {
	return len(c.Services) == 0 || slices.Contains(c.Services, service)
}

// TokenService issues and validates HS256 bearer tokens.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a token service for secret.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < MinJWTSecretLength {
		return nil, ErrInvalidSecretLength
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Issue signs a token for subject valid for ttl, optionally scoped to services.
func (s *TokenService) Issue(subject string, ttl time.Duration, services ...string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Services: services,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", ErrTokenSigningFailed
	}
	return signed, nil
}

// Validate parses tokenString and returns its claims.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

type contextKey string

const claimsContextKey contextKey = "claims"

// ClaimsFromContext returns the claims stored by JWTAuth, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey).(*Claims)
	return claims
}

// JWTAuth rejects requests without a valid bearer token.
func JWTAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := extractBearerToken(r)
			if !ok {
				Unauthorized(w, "Missing or malformed Authorization header")
				return
			}

			claims, err := tokens.Validate(tokenString)
			if err != nil {
				Unauthorized(w, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
