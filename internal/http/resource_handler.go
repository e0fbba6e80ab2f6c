package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"therapy-chat/internal/domain"
)

// GetDisclaimer maneja GET /disclaimer.
func GetDisclaimer(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"disclaimer": domain.Disclaimer})
}

// ListResources maneja GET /resources.
func ListResources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"emergency": domain.EmergencyResources(),
		"online":    domain.OnlineResources(),
	})
}
