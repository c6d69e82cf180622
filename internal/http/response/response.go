package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tradeguild-backend/internal/platform/apierr"
)

type APIError struct {
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// problemLister is implemented by errors that carry per-field messages.
type problemLister interface {
	Problems() []string
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	env := ErrorEnvelope{Error: APIError{Message: msg, Code: code}}
	var pl problemLister
	if errors.As(err, &pl) {
		env.Error.Details = pl.Problems()
	}
	c.JSON(status, env)
}

// RespondServiceError maps a service error onto its HTTP status. Internal
// errors are reported without their message.
func RespondServiceError(c *gin.Context, err error) {
	ae := apierr.From(err)
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, ae.Status, ae.Code, errors.New("internal error"))
		return
	}
	RespondError(c, ae.Status, ae.Code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
