package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"payops/internal/config"
)

// CORS returns the Cross-Origin Resource Sharing middleware. Outside production an empty
// origin list allows every origin; in production it rejects every cross-origin request.
// Same-origin requests pass either way.
func CORS(cfg config.CORSConfig, production bool) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	switch {
	case len(cfg.AllowedOrigins) > 0:
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	case production:
		corsConfig.AllowOriginFunc = func(string) bool { return false }
	default:
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Authorization", "Accept", "X-Requested-With", "X-Request-ID", "X-Author")
	corsConfig.AddExposeHeaders("X-Request-ID", "Content-Disposition", "X-RateLimit-Remaining")
	corsConfig.MaxAge = 24 * time.Hour
	return cors.New(corsConfig)
}
