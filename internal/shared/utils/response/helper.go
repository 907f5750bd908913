package response

import "github.com/gin-gonic/gin"

func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func SuccessWithMeta(c *gin.Context, status int, message string, data, meta interface{}) {
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

func Fail(c *gin.Context, status int, code, suggestion string) {
	c.JSON(status, Envelope{
		Success:    false,
		Code:       code,
		Suggestion: suggestion,
	})
}

func FailWithDetails(c *gin.Context, status int, code, suggestion string, details interface{}) {
	c.JSON(status, Envelope{
		Success:    false,
		Code:       code,
		Suggestion: suggestion,
		Error:      details,
	})
}
