package apierror

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToJSON(t *testing.T) {
	err := ValidationError("invalid hour", FieldError{Field: "hour", Message: "expected YYYY-MM-DD-HH"})
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "invalid hour", err.Error())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(err.ToJSON(), &body))
	assert.Equal(t, false, body["success"])
	e := body["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", e["code"])
	assert.Len(t, e["details"], 1)
}

func TestDefaultMessages(t *testing.T) {
	assert.Equal(t, "Authentication required", Unauthorized("").Message)
	assert.Equal(t, "An unexpected error occurred", InternalError("").Message)
	assert.Equal(t, http.StatusServiceUnavailable, ServiceUnavailable("").StatusCode)
}
