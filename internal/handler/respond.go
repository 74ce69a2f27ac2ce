package handler

import (
	"net/http"

	"clip-share/internal/services"
	"clip-share/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal error"
	}
	c.JSON(status, httpdto.NewErrorResponse(message, httpdto.ErrorCode(status)))
}

func currentUser(c *gin.Context) (string, bool) {
	uid, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return "", false
	}
	return uid, true
}
