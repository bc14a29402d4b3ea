package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// StartHealthServer exposes a liveness endpoint for the long-running
// commands. Runs in its own goroutine; failures are logged, not fatal.
func StartHealthServer(port string, component string) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   "connect-four",
			"component": component,
			"uptime":    time.Since(startTime).String(),
		})
	})

	go func() {
		if err := router.Run(":" + port); err != nil {
			log.Printf("[HEALTH] server stopped: %v", err)
		}
	}()
}
