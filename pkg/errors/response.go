package errors

import (
	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope for every HTTP reply.
type Response struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSONSuccess writes a 200 reply carrying data.
func JSONSuccess(c *gin.Context, data interface{}) {
	c.JSON(Success.HTTPStatus(), Response{Code: Success, Message: Success.Message(), Data: data})
}

// JSONError writes err using its code's HTTP status.
func JSONError(c *gin.Context, err error) {
	e := GetError(err)
	resp := Response{Code: e.Code, Message: e.Error()}
	if len(e.Details) > 0 {
		resp.Data = e.Details
	}
	c.AbortWithStatusJSON(e.Code.HTTPStatus(), resp)
}
