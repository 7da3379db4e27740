package api

import "github.com/gin-gonic/gin"

// respond wraps every success payload in the shared data envelope
func respond(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, gin.H{"data": payload})
}
