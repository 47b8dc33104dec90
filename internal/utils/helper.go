package utils

import (
	"encoding/json"
	"net/http"
)

func StrPtr(s string) *string {
	return &s
}

func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// WriteJSON writes v as the response body. Merchant API answers always use
// 200; the outcome is carried in the body.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// WriteJSONError writes the {error_code, error_note} shape. An empty note
// is omitted.
func WriteJSONError(w http.ResponseWriter, errorCode int, note string) {
	body := map[string]any{"error_code": errorCode}
	if note != "" {
		body["error_note"] = note
	}
	WriteJSON(w, http.StatusOK, body)
}
