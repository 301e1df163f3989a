package response

import "github.com/gin-gonic/gin"

// MessageBody is the body of every error and confirmation response.
type MessageBody struct {
	Msg string `json:"msg"`
}

func JSON(c *gin.Context, httpStatus int, data interface{}) {
	c.JSON(httpStatus, data)
}

func Message(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, MessageBody{Msg: message})
}

func Error(c *gin.Context, httpStatus int, message string) {
	c.AbortWithStatusJSON(httpStatus, MessageBody{Msg: message})
}
