package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTUserIDKey  = "jwt_user_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService validates tokens. A service without a secret disables authentication.
	JWTService *auth.JWTService
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// JWTAuth authenticates bearer tokens and stores the claims in the gin context
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if cfg.JWTService == nil || !cfg.JWTService.Enabled() {
			c.Next()
			return
		}
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		header := c.GetHeader(AuthHeaderKey)
		if !strings.HasPrefix(header, BearerPrefix) {
			abortWithError(c, dto.ErrCodeUnauthorized, "Missing or malformed authorization header")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if tokenString == "" {
			abortWithError(c, dto.ErrCodeUnauthorized, "Missing token")
			return
		}

		claims, err := cfg.JWTService.ValidateToken(tokenString)
		if err != nil {
			log.Warn("JWT authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", GetRequestID(c)),
			)
			if errors.Is(err, auth.ErrExpiredToken) {
				abortWithError(c, dto.ErrCodeTokenExpired, "Token has expired")
				return
			}
			abortWithError(c, dto.ErrCodeTokenInvalid, "Invalid token")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)

		ctx := c.Request.Context()
		ctx = logger.WithContext(ctx, logger.FromContextOr(ctx, log).With(zap.String("user_id", claims.UserID)))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRoles rejects authenticated callers that hold none of roles.
// Requests that passed through a disabled JWTAuth carry no claims and are let through.
func RequireRoles(jwtService *auth.JWTService, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtService == nil || !jwtService.Enabled() {
			c.Next()
			return
		}
		claims := GetJWTClaims(c)
		if claims == nil {
			abortWithError(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if !claims.HasAnyRole(roles...) {
			abortWithError(c, dto.ErrCodeForbidden, "Requires one of roles: "+strings.Join(roles, ", "))
			return
		}
		c.Next()
	}
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetJWTUserID retrieves the user ID from JWT claims in context
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}
