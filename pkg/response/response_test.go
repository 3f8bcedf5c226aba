package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"isuclicker-api/pkg/apierror"
)

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, fmt.Errorf("wrapped: %w", apierror.ServiceUnavailable("journal is disabled")))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "journal is disabled")

	rec = httptest.NewRecorder()
	Error(rec, errors.New("secret detail"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret detail")
}

func TestJSONWithMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONWithMeta(rec, http.StatusOK, []int{1, 2}, 2, 10, 12)
	assert.JSONEq(t, `{"success":true,"data":[1,2],"meta":{"page":2,"limit":10,"total":12}}`, rec.Body.String())
}
