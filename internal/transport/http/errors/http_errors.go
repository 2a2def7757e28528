package errors

import (
	"encoding/json"
	"net/http"
)

// APIError is the error body of every endpoint. The message is exposed as
// "error" because the front-end reads that key.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

type RateLimitError struct {
	Code          string `json:"code"`
	Message       string `json:"error"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
