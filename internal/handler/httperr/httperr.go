// Package httperr carries structured error responses through gin's error
// stack so the error middleware can render them uniformly. Handlers mapping
// engine sentinels to statuses attach a Response; the original error rides
// along for logging and is never serialized to the client.
package httperr

import (
	"github.com/gin-gonic/gin"
)

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// AbortWithError records err on the context for the logging middleware and
// aborts the request with the public response body.
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("httperr: AbortWithError requires a non-nil error")
	}

	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Detail = detail

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}
