package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointerHelpers(t *testing.T) {
	p := StrPtr("abc")
	require.NotNil(t, p)
	assert.Equal(t, "abc", *p)

	assert.Equal(t, "abc", PtrString(p))
	assert.Equal(t, "", PtrString(nil))
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	WriteJSON(w, http.StatusOK, map[string]any{"error": 0})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":0}`, w.Body.String())
}

func TestWriteJSONError(t *testing.T) {
	t.Run("With note", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSONError(w, -32601, "Incorrect request")

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(-32601), body["error_code"])
		assert.Equal(t, "Incorrect request", body["error_note"])
	})

	t.Run("Empty note is omitted", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSONError(w, -32400, "")

		assert.JSONEq(t, `{"error_code":-32400}`, w.Body.String())
	})
}
