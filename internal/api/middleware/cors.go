package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	corsHeaders = []string{"Authorization", "Content-Type", "Accept", "Origin", "X-Requested-With"}
)

// CORSConfig lists the origins allowed to call the APIs and open sockets.
// "*" allows any origin.
type CORSConfig struct {
	Origins []string
	MaxAge  time.Duration
}

// DefaultCORSConfig allows any origin; the terminal page may be served
// from a different host than the broker.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{Origins: []string{"*"}, MaxAge: 12 * time.Hour}
}

func (c CORSConfig) allowAll() bool {
	for _, o := range c.Origins {
		if o == "*" {
			return true
		}
	}
	return len(c.Origins) == 0
}

// CORS creates a CORS middleware with the provided configuration.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:    corsMethods,
		AllowHeaders:    corsHeaders,
		AllowWebSockets: true,
		MaxAge:          cfg.MaxAge,
	}
	if cfg.allowAll() {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.Origins
	}
	return cors.New(c)
}

// CheckOrigin applies the same origin list to WebSocket upgrades. Requests
// without an Origin header are not from a browser and are allowed.
func (c CORSConfig) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || c.allowAll() {
		return true
	}
	for _, o := range c.Origins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
