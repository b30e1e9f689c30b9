package http

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the interpreter API.
func (h *Handlers) RegisterRoutes(r gin.IRouter) {
	r.GET("/api/health", h.Health)

	cli := r.Group("/api/cli")
	{
		cli.POST("/execute", h.Execute)
		cli.GET("/session/:id", h.GetSession)
		cli.DELETE("/session/:id", h.EndSession)
	}

	fs := r.Group("/api/fs")
	{
		fs.POST("/init", h.InitFilesystem)
		fs.GET("/list", h.ListFiles)
		fs.GET("/read", h.ReadFile)
		fs.GET("/exists", h.PathExists)
	}
}
