package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appAuth "github.com/yigit/admissions/internal/app/auth"
	"github.com/yigit/admissions/internal/app/models/dto"
	"github.com/yigit/admissions/internal/pkg/auth"
)

// Context keys set by ActorMiddleware
const (
	ContextActor = "actor"
	ContextRole  = "role"
)

// ActorHeader names the caller when no token verifier is configured
const ActorHeader = "X-Actor"

// ActorMiddleware establishes who is performing a mutation. Identity is issued
// upstream: with a verifier, the bearer token's claims name the actor;
// without one, the X-Actor header does.
type ActorMiddleware struct {
	verifier *auth.Verifier
}

// NewActorMiddleware creates an ActorMiddleware. verifier may be nil.
func NewActorMiddleware(verifier *auth.Verifier) *ActorMiddleware {
	return &ActorMiddleware{verifier: verifier}
}

// RequireActor rejects requests that do not name an actor
func (m *ActorMiddleware) RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.verifier == nil {
			actor := strings.TrimSpace(c.GetHeader(ActorHeader))
			if actor == "" {
				abortUnauthorized(c, dto.ErrorCodeUnauthorized, ActorHeader+" header missing")
				return
			}
			c.Set(ContextActor, actor)
			c.Next()
			return
		}

		tokenString, err := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header missing or malformed")
			return
		}

		claims, err := m.verifier.ValidateToken(tokenString)
		if err != nil {
			code := dto.ErrorCodeInvalidToken
			details := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				code = dto.ErrorCodeExpiredToken
				details = "Token has expired"
			}
			abortUnauthorized(c, code, details)
			return
		}

		role := strings.TrimSpace(claims.Role)
		if role == "" {
			// a token without a role gets the least privileged one
			role = appAuth.RoleApplicant
		}
		c.Set(ContextActor, claims.Actor())
		c.Set(ContextRole, role)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	errorDetail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

// RequireStaff rejects actors whose role is not a staff role. Must run after RequireActor.
func (m *ActorMiddleware) RequireStaff(authz *appAuth.AuthorizationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authz.ValidateStaff(Role(c)); err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Actor returns the actor set by RequireActor
func Actor(c *gin.Context) string {
	return c.GetString(ContextActor)
}

// Role returns the actor's role; empty when identities carry no role
func Role(c *gin.Context) string {
	return c.GetString(ContextRole)
}
