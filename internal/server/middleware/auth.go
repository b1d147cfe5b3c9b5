package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/agroprofile/internal/server/handlers"
	"github.com/iudanet/agroprofile/internal/server/jwt"
)

// TokenValidator проверяет сессионный токен
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwt.Claims, error)
}

// AuthMiddleware создает middleware для проверки JWT токена
func AuthMiddleware(logger *slog.Logger, tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Извлекаем токен из заголовка Authorization
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(ctx, "missing Authorization header")
				handlers.WriteError(logger, w, "missing token", http.StatusUnauthorized)
				return
			}

			// Ожидаем формат: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				// сам заголовок не логируем: в нем может быть токен
				logger.WarnContext(ctx, "invalid Authorization header format")
				handlers.WriteError(logger, w, "invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.ValidateToken(strings.TrimSpace(parts[1]))
			if err != nil {
				logger.WarnContext(ctx, "invalid token", slog.Any("error", err))
				handlers.WriteError(logger, w, "invalid token", http.StatusUnauthorized)
				return
			}

			logger.DebugContext(ctx, "user authenticated", slog.Int64("user_id", claims.UserID))

			// Передаем запрос дальше с user_id в контексте
			next.ServeHTTP(w, r.WithContext(handlers.WithUserID(ctx, claims.UserID)))
		})
	}
}
