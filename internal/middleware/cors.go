package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/carebase/carebase/internal/config"
)

// CORS builds the gin-contrib/cors middleware from config. A "*" entry in
// the allowed origins switches to allow-all, the default.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods: cfg.AllowedMethods,
		AllowHeaders: cfg.AllowedHeaders,
		MaxAge:       cfg.MaxAge,
	}

	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			cc.AllowAllOrigins = true
			break
		}
	}
	if !cc.AllowAllOrigins {
		cc.AllowOrigins = cfg.AllowedOrigins
	}

	return cors.New(cc)
}
