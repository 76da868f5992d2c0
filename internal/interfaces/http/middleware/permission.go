package middleware

import (
	"net/http"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Operator groups
const (
	GroupAdmin        = "Admin"
	GroupComptable    = "Comptable"
	GroupGestionnaire = "Gestionnaire"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when permission is denied (optional)
	OnDenied func(c *gin.Context, requiredGroups []string)
}

// RequireGroups creates middleware that lets superusers and members of any
// of the listed groups through
func RequireGroups(groups ...string) gin.HandlerFunc {
	return RequireGroupsWithConfig(PermissionConfig{}, groups...)
}

// RequireGroupsWithConfig is RequireGroups with custom config
func RequireGroupsWithConfig(cfg PermissionConfig, groups ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handlePermissionDenied(c, cfg, groups, "No authentication claims found")
			return
		}

		if !claims.InAnyGroup(groups...) {
			handlePermissionDenied(c, cfg, groups, "User is not in a required group")
			return
		}

		c.Next()
	}
}

// HasGroup reports whether the authenticated user may act as any of groups
func HasGroup(c *gin.Context, groups ...string) bool {
	claims := GetJWTClaims(c)
	return claims != nil && claims.InAnyGroup(groups...)
}

// handlePermissionDenied handles permission denied scenarios
func handlePermissionDenied(c *gin.Context, cfg PermissionConfig, requiredGroups []string, reason string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, requiredGroups)
		return
	}

	if cfg.Logger != nil {
		claims := GetJWTClaims(c)
		username := ""
		userGroups := []string{}
		if claims != nil {
			username = claims.Username
			userGroups = claims.Groups
		}

		cfg.Logger.Warn("Permission denied",
			zap.String("reason", reason),
			zap.String("username", username),
			zap.Strings("required_groups", requiredGroups),
			zap.Strings("user_groups", userGroups),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
		shared.CodePermissionDenied,
		shared.ErrPermissionDenied.Message,
		GetRequestID(c),
	))
}
