package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/yungbote/tradeguild-backend/internal/pkg/errors"
)

type listErr struct{ items []string }

func (e listErr) Error() string      { return "bad input" }
func (e listErr) Unwrap() error      { return pkgerrors.ErrInvalidArgument }
func (e listErr) Problems() []string { return e.items }

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		err     error
		status  int
		code    string
		details int
		message string
	}{
		{name: "not found", err: fmt.Errorf("post: %w", pkgerrors.ErrNotFound), status: http.StatusNotFound, code: "not_found"},
		{name: "forbidden", err: pkgerrors.ErrForbidden, status: http.StatusForbidden, code: "forbidden"},
		{name: "conflict", err: pkgerrors.ErrConflict, status: http.StatusConflict, code: "conflict"},
		{name: "validation", err: listErr{items: []string{"a", "b"}}, status: http.StatusBadRequest, code: "invalid_argument", details: 2},
		{name: "internal", err: errors.New("dial tcp: refused"), status: http.StatusInternalServerError, code: "internal", message: "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			RespondServiceError(c, tc.err)

			if rec.Code != tc.status {
				t.Fatalf("status=%d, want %d", rec.Code, tc.status)
			}
			var env ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tc.code {
				t.Fatalf("code=%q, want %q", env.Error.Code, tc.code)
			}
			if len(env.Error.Details) != tc.details {
				t.Fatalf("details=%v, want %d entries", env.Error.Details, tc.details)
			}
			if tc.message != "" && env.Error.Message != tc.message {
				t.Fatalf("message=%q, want %q", env.Error.Message, tc.message)
			}
		})
	}
}
