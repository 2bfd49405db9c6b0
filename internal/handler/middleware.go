package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nftpawnshop/backend/internal/apperror"
	"github.com/nftpawnshop/backend/internal/logger"
)

// WebhookAuth rejects requests without a valid HS256 bearer token signed
// with secret. It guards the routes the indexer and cron post events to.
func WebhookAuth(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondAppError(w, apperror.Unauthorized("missing authorization header"))
				return
			}

			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenString == "" {
				respondAppError(w, apperror.Unauthorized("invalid authorization header format"))
				return
			}

			if err := validateWebhookToken(tokenString, key); err != nil {
				respondAppError(w, apperror.Unauthorized("invalid token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func validateWebhookToken(tokenString string, key []byte) error {
	if len(key) == 0 {
		return errors.New("webhook secret not configured")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

// GenerateWebhookToken mints a token accepted by WebhookAuth.
func GenerateWebhookToken(secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "webhook",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// RequestLogger copies chi's request ID into the context logger.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(logger.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
