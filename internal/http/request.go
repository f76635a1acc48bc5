package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

// maxBodyBytes caps request bodies; records are small JSON documents.
const maxBodyBytes = 1 << 20

// decodeBody parses a JSON request body into v, rejecting unknown fields
// and trailing garbage.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid request body: trailing data")
	}
	return nil
}

// parseDateQuery reads a required yyyy-MM-dd query parameter.
func parseDateQuery(r *http.Request, name string) (core.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return core.Date{}, fmt.Errorf("missing %q query parameter", name)
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid %q: expected yyyy-MM-dd", name)
	}
	return d, nil
}

// clientIP extracts the originating address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if idx := strings.IndexByte(ip, ','); idx > 0 {
			return strings.TrimSpace(ip[:idx])
		}
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
