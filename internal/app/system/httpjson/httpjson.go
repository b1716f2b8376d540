// Package httpjson holds the small JSON request/response helpers shared by
// every API handler: bounded body decoding and the {message} error envelope.
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes caps request bodies; registration payloads are tiny.
const maxBodyBytes = 1 << 20

// Decode reads a JSON request body into dst, rejecting unknown fields and
// trailing garbage.
func Decode(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON body: unexpected trailing data")
	}
	return nil
}

// Write encodes v as the response body with the given status code.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the {message} error envelope used across the API.
func Error(w http.ResponseWriter, status int, message string) {
	Write(w, status, map[string]string{"message": message})
}
