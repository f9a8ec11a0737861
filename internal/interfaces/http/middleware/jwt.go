package middleware

import (
	"errors"
	"strings"

	"github.com/freelance/backend/internal/infrastructure/auth"
	"github.com/freelance/backend/internal/infrastructure/logger"
	"github.com/freelance/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTUserIDKey  = "jwt_user_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenVerifier validates access tokens
type TokenVerifier interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// JWTConfig holds configuration for JWT middleware
type JWTConfig struct {
	// Verifier is required
	Verifier TokenVerifier
	// Blacklist is optional; lookups that fail let the request through
	Blacklist auth.TokenBlacklist
	Logger    *zap.Logger
}

// JWTAuth authenticates the request with a bearer token and stores the
// caller's user id for the handlers.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortWithError(c, dto.ErrCodeUnauthorized, "Missing authorization header")
			return
		}
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			abortWithError(c, dto.ErrCodeUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := cfg.Verifier.ValidateAccessToken(token)
		if err != nil {
			abortWithAuthError(c, err)
			return
		}
		userID, err := claims.GetUserUUID()
		if err != nil {
			abortWithAuthError(c, auth.ErrInvalidClaims)
			return
		}

		if cfg.Blacklist != nil && isRevoked(c, cfg.Blacklist, claims, log) {
			abortWithAuthError(c, auth.ErrTokenBlacklisted)
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, userID)
		ctx := logger.WithUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func isRevoked(c *gin.Context, blacklist auth.TokenBlacklist, claims *auth.Claims, log *zap.Logger) bool {
	ctx := c.Request.Context()
	if claims.ID != "" {
		revoked, err := blacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			log.Warn("token blacklist lookup failed", zap.String("jti", claims.ID), zap.Error(err))
		} else if revoked {
			return true
		}
	}
	revoked, err := blacklist.IsUserRevoked(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		log.Warn("user revocation lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return false
	}
	return revoked
}

func abortWithAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		abortWithError(c, dto.ErrCodeTokenExpired, "Token has expired")
	case errors.Is(err, auth.ErrTokenBlacklisted):
		abortWithError(c, dto.ErrCodeTokenRevoked, "Token has been revoked")
	case errors.Is(err, auth.ErrTokenNotYetValid):
		abortWithError(c, dto.ErrCodeUnauthorized, "Token is not yet valid")
	default:
		abortWithError(c, dto.ErrCodeUnauthorized, "Invalid token")
	}
}

// GetClaims returns the claims stored by JWTAuth
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(JWTClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// GetUserID returns the authenticated user id
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(JWTUserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
