// Package devserver is an in-memory reference implementation of the REST
// surface the clients consume. cmd/devserver runs it for local development;
// the test suite runs the api.Client against it.
package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"noodlemap/pkg/models"
)

// Config holds the reference server settings.
type Config struct {
	JWTSecret string
	JWTIssuer string
	JWTExpiry time.Duration
}

// DefaultConfig returns dev-only defaults.
func DefaultConfig() Config {
	return Config{
		JWTSecret: "noodlemap-dev-secret",
		JWTIssuer: "noodlemap-dev",
		JWTExpiry: 24 * time.Hour,
	}
}

// Server exposes the REST surface over an in-memory store.
type Server struct {
	router *gin.Engine
	store  *Store
	tokens *tokenIssuer
}

// NewServer creates a server with all routes registered.
func NewServer(cfg Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router: router,
		store:  NewStore(),
		tokens: newTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiry),
	}

	s.setupRoutes()
	return s
}

// Store exposes the backing store so seed data can be loaded.
func (s *Server) Store() *Store { return s.store }

// Router returns the gin engine (tests mount it on httptest).
func (s *Server) Router() *gin.Engine { return s.router }

// Start runs the HTTP server.
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

// setupRoutes registers all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", s.register)
			auth.POST("/login", s.login)
		}

		admin := api.Group("/admin", s.authMiddleware(), s.adminMiddleware())
		{
			admin.GET("/users", s.listUsers)
			admin.PUT("/users/:id/role", s.updateUserRole)
		}

		api.GET("/shops", s.listShops)
		api.GET("/shops/:id", s.getShop)

		protectedShops := api.Group("", s.authMiddleware())
		{
			protectedShops.POST("/shops", s.createShop)
			protectedShops.PUT("/shops/:id", s.updateShop)
			protectedShops.DELETE("/shops/:id", s.deleteShop)
		}

		api.GET("/reviews/shop/:id", s.listShopReviews)
		api.GET("/reviews/:id/replies", s.listReplies)

		protectedReviews := api.Group("", s.authMiddleware())
		{
			protectedReviews.POST("/reviews", s.createReview)
			protectedReviews.PUT("/reviews/:id", s.updateReview)
			protectedReviews.DELETE("/reviews/:id", s.deleteReview)
			protectedReviews.POST("/reviews/:id/media", s.addReviewMedia)
			protectedReviews.DELETE("/reviews/:id/media/:media_id", s.deleteReviewMedia)
		}
	}
}

// healthCheck returns server health status.
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// authMiddleware validates the bearer token and stores the caller in the
// context.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, models.Fail("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, models.Fail("invalid authorization format"))
			c.Abort()
			return
		}

		userID, err := s.tokens.Verify(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, models.Fail("invalid or expired token"))
			c.Abort()
			return
		}

		user, ok := s.store.GetUser(userID)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.Fail("unknown user"))
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

// adminMiddleware requires the admin role; must run after authMiddleware.
func (s *Server) adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.Fail("unauthorized"))
			c.Abort()
			return
		}
		if !hasRole(user, models.RoleAdmin) {
			c.JSON(http.StatusForbidden, models.Fail("admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUser extracts the authenticated account from the gin context.
func currentUser(c *gin.Context) (*account, bool) {
	v, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	u, ok := v.(*account)
	return u, ok
}

func hasRole(u *account, role models.Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
