package ops_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanabi-drive/hanabi/ops"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()

	ops.WriteError(rec, http.StatusBadRequest, "bad_request", "Bad things")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"error":"bad_request","message":"Bad things"}`, rec.Body.String())
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	err := ops.WriteJSON(rec, http.StatusCreated, map[string]int{"n": 1})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}
