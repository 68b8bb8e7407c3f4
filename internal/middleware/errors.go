package middleware

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders errors handlers attached with c.Error and recovered
// panics as a 500. Production hides the cause.
func ErrorHandler(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("❌ panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, rec)
				respondInternal(c, production, fmt.Errorf("%v", rec))
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		log.Printf("❌ Error: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		respondInternal(c, production, err)
	}
}

func respondInternal(c *gin.Context, production bool, err error) {
	msg := "Internal server error"
	if !production {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msg})
}
