package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSupplier Role = "supplier"
	// RoleService is used by internal pipelines such as categorization.
	RoleService Role = "service"
)

// Identity is the verified caller of a request.
type Identity struct {
	UserID int64
	Role   Role
}

// Claims is the token payload: sub carries the numeric user id.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// Auth verifies an HS256 bearer token and stores the caller identity in the
// request context.
func Auth(secret []byte) func(http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			id, err := parse(parser, strings.TrimSpace(token), secret)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func parse(parser *jwt.Parser, token string, secret []byte) (Identity, error) {
	claims := &Claims{}
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Identity{}, errors.New("subject is not a user id")
	}
	switch claims.Role {
	case RoleCustomer, RoleSupplier, RoleService:
	default:
		return Identity{}, errors.New("unknown role")
	}
	return Identity{UserID: userID, Role: claims.Role}, nil
}

// RequireRole rejects callers whose role is not listed.
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}
			if !slices.Contains(roles, id.Role) {
				http.Error(w, "forbidden for role "+string(id.Role), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IssueToken signs a token for id; used by tooling and tests.
func IssueToken(secret []byte, id Identity, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Role: id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
