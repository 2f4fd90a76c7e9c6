package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"ollamachat-backend/internal/models"
)

// ErrBadPayload is returned by DecodeJSON for bodies that are not a single JSON value.
var ErrBadPayload = errors.New("invalid request payload")

// DecodeJSON reads at most maxBytes of r's body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: body must contain a single JSON object", ErrBadPayload)
	}
	return nil
}

// RespondJSON writes a JSON response with the given status code and payload.
func RespondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already sent.
		log.Printf("ERROR [httputil] RespondJSON: encoding response: %v", err)
	}
}

// RespondError writes the {error, statusCode} body used by every failing endpoint.
func RespondError(w http.ResponseWriter, statusCode int, message string) {
	RespondJSON(w, statusCode, models.ErrorResponse{Error: message, StatusCode: statusCode})
}
