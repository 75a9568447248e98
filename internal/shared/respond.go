package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// Message is the generic JSON envelope for status responses.
type Message struct {
	Message string `json:"message"`
}

// RespondJSON writes v as a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// RespondMessage writes a Message envelope.
func RespondMessage(w http.ResponseWriter, status int, msg string) {
	RespondJSON(w, status, Message{Message: msg})
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	return nil
}
