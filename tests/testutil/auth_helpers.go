package testutil

import (
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/queless/trinity-canteen-api/middleware"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer, role string, scopes []string) *validator.ValidatedClaims {
	scopeString := ""
	if len(scopes) > 0 {
		for i, scope := range scopes {
			if i > 0 {
				scopeString += " "
			}
			scopeString += scope
		}
	}

	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: scopeString,
			Role:  role,
		},
	}
}

// MockAuthMiddleware returns a Gin middleware that simulates a validated
// Auth0 token. It sets the context keys exactly as EnsureValidToken does.
func MockAuthMiddleware(auth0ID, role, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", auth0ID)
		c.Set("access_token", accessToken)
		c.Set("validated_claims", MockValidatedClaims(auth0ID, "https://test.auth0.com/", role, nil))
		c.Next()
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID, role string) {
	c.Set("user_id", userID)
	c.Set("access_token", "mock-token")
	c.Set("validated_claims", MockValidatedClaims(userID, "https://test.auth0.com/", role, nil))
}

// CreateTestContext creates a test Gin context
func CreateTestContext() (*gin.Context, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	c, engine := gin.CreateTestContext(nil)
	return c, engine
}
