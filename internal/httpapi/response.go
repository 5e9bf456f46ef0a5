package httpapi

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope every route answers with.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Payload any    `json:"payload"`
}

func writeJSON(w http.ResponseWriter, code int, message string, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{Code: code, Message: message, Payload: payload})
}

func jsonError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, message, nil)
}
