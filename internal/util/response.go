package util

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the data part of the success envelope.
type Response map[string]interface{}

// Business error codes.
const (
	CodeOK           = 0
	CodeInvalidParam = 40001
	CodeAuth         = 40101
	CodeForbidden    = 40301
	CodeNotFound     = 40401
	CodeConflict     = 40901
	CodeServerErr    = 50001
)

// Success writes the uniform success envelope.
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Error writes the uniform error envelope.
func Error(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}

// Fail maps an AppError (or any error) to the uniform error envelope.
func Fail(c *gin.Context, err error) {
	var app *AppError
	if !errors.As(err, &app) {
		Error(c, http.StatusInternalServerError, CodeServerErr, err.Error())
		return
	}

	switch app.Kind {
	case KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    CodeInvalidParam,
			"message": app.Message,
			"fields":  app.Fields,
		})
	case KindNotFound:
		Error(c, http.StatusNotFound, CodeNotFound, app.Message)
	case KindConflict:
		Error(c, http.StatusConflict, CodeConflict, app.Message)
	case KindForbidden:
		Error(c, http.StatusForbidden, CodeForbidden, app.Message)
	default:
		Error(c, http.StatusInternalServerError, CodeServerErr, app.Message)
	}
}
