package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/graphloader/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondAPIError(c *gin.Context, err *apierr.Error) {
	if err == nil {
		RespondError(c, http.StatusInternalServerError, "", nil)
		return
	}
	RespondError(c, err.Status, err.Code, err.Err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
