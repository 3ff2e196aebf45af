package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"authgate/internal/domain"
	"authgate/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas bajo /api.
func NewRouter(
	logger *zap.Logger,
	authH *AuthHandler,
	profileH *ProfileHandler,
	guard *service.Guard,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	api := r.Group("/api")
	api.POST("/register", authH.Register)
	api.POST("/activation", authH.Activate)
	api.POST("/login", authH.Login)
	api.PUT("/forgotpassword", authH.ForgotPassword)
	api.PUT("/resetpassword", authH.ResetPassword)
	api.POST("/googlelogin", authH.GoogleLogin)
	api.POST("/facebooklogin", authH.FacebookLogin)

	signedIn := api.Group("", RequireSignin(guard))
	signedIn.GET("/user/:id", profileH.Read)
	signedIn.PUT("/user/update", profileH.Update)
	signedIn.PUT("/admin/update", RequireRole(guard, domain.RoleAdmin), profileH.Update)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap; nunca registra el body.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
