package router

import (
	"net/http"

	"github.com/sovieeet/gamevault/internal/auth"
	"github.com/sovieeet/gamevault/internal/config"
	"github.com/sovieeet/gamevault/internal/handler"
	"github.com/sovieeet/gamevault/internal/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine, the auth gate and all routes.
// The gate runs on every request; public path prefixes come from config.
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// shared revocation store: one instance for the gate and the handlers
	blacklist := auth.NewBlacklist()
	resolver := auth.NewResolver(cfg.JWT.Secret, blacklist)

	r.Use(middleware.AuthGate(cfg, resolver))
	r.Use(middleware.AuditMiddleware(db))

	// static assets (images, stylesheets)
	r.Static("/static", "./web/static")

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// public auth endpoints, covered by the /api/auth/ prefix in the allow-list
	authHandler := handler.NewAuthHandler(
		db,
		cfg.JWT.Secret,
		cfg.JWT.ExpireMinutes,
		cfg.Security.BcryptCost,
		cfg.JWT.CookieName,
		blacklist,
	)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/token", authHandler.Token)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/logout", authHandler.Logout)

	// gated endpoints, any authenticated user
	api.GET("/me", handler.GetMe(db))

	gameHandler := handler.NewGameHandler(db)
	api.GET("/games", gameHandler.List)

	// gated endpoints, admin role enforced in the handlers
	api.POST("/games", gameHandler.Create)
	api.PUT("/games/:name", gameHandler.Update)
	api.DELETE("/games/:name", gameHandler.Delete)

	api.GET("/users", handler.ListUsers(db))
	api.DELETE("/users/:username", handler.DeleteUser(db))
	api.DELETE("/users", handler.DeleteAllUsers(db))

	admin := api.Group("/admin")
	admin.POST("/users", authHandler.RegisterByAdmin)
	admin.POST("/blacklist/clear", authHandler.ClearBlacklist)
	admin.GET("/audit", handler.ListAuditLogs(db))

	return r
}
