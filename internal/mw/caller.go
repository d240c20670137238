package mw

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-ledger-backend/internal/ledger"
)

const callerKey = "ledger.caller"

// RequireCaller reads the caller address from header and rejects requests
// without one.
func RequireCaller(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := ledger.NewCaller(c.GetHeader(header))
		if caller.Address == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + header + " header"})
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// CallerFrom returns the caller stored by RequireCaller, or the zero Caller.
func CallerFrom(c *gin.Context) ledger.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(ledger.Caller); ok {
			return caller
		}
	}
	return ledger.Caller{}
}
