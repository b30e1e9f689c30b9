package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the socket endpoint and the broker's status routes.
func (b *Broker) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws", b.HandleConnection)
	r.GET("/api/health", b.Health)
	r.GET("/api/stats", b.Stats)
}

// Health reports liveness and the number of open connections.
func (b *Broker) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"timestamp":        b.now().UTC().Format(time.RFC3339),
		"connectedClients": b.Count(),
	})
}

// Stats lists connected clients with the process counters.
func (b *Broker) Stats(c *gin.Context) {
	clients := b.Clients()
	c.JSON(http.StatusOK, gin.H{
		"connectedClients": len(clients),
		"clients":          clients,
		"metrics":          b.metrics.Stats(),
	})
}
