// Package httpkit holds small HTTP helpers shared by the API handlers.
package httpkit

import (
	"encoding/json"
	"net/http"
	"strings"

	"reelsmith/internal/pkg/errors"
)

func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// DecodeJSONString strictly decodes a JSON document held in a string,
// for multipart text fields.
func DecodeJSONString(raw string, v any) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteOK writes a 200 envelope. Fields are merged at the top level next
// to "ok".
func WriteOK(w http.ResponseWriter, fields map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	WriteJSON(w, http.StatusOK, body)
}

// WriteErr writes an ok:false envelope with the given status.
func WriteErr(w http.ResponseWriter, status int, msg string, debug map[string]any) {
	body := map[string]any{"ok": false, "error": msg}
	if len(debug) > 0 {
		body["debug"] = debug
	}
	WriteJSON(w, status, body)
}

// WriteError maps a domain error to its HTTP status and envelope.
func WriteError(w http.ResponseWriter, err error, debug map[string]any) {
	msg := err.Error()
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		msg = domainErr.Message
	}
	WriteErr(w, errors.GetHTTPStatus(err), msg, debug)
}
