package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims identify the account in the subject
type Claims struct {
	jwt.RegisteredClaims
}

// Principal is the authenticated caller
type Principal struct {
	AccountId string
	Role      models.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

type principalKey struct{}

// AccountLookup resolves a token subject to an account
type AccountLookup interface {
	GetAccount(ctx context.Context, accountId string) (*models.Account, error)
}

func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Sign issues an HS256 token for accountId valid for ttl
func Sign(secret []byte, accountId string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountId,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ExtractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Middleware authenticates the bearer token and loads the caller's role from
// the store, so a demoted admin loses access without reissuing tokens.
func Middleware(secret []byte, accounts AccountLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearer(r.Header.Get("Authorization"))
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing token")
				return
			}

			claims, err := ParseToken(token, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			account, err := accounts.GetAccount(r.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, store.ErrAccountNotFound) {
					writeError(w, http.StatusUnauthorized, "unknown account")
					return
				}
				zap.L().Error("Failed to load account for token",
					zap.String("user_id", claims.Subject),
					zap.Error(err))
				writeError(w, http.StatusInternalServerError, "An error occurred")
				return
			}

			ctx := WithPrincipal(r.Context(), Principal{AccountId: account.Id, Role: account.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after Middleware
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}
		if !principal.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
