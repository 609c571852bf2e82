package server

import (
	"encoding/json"
	"net/http"

	svcErr "github.com/orbitlabs/orbit-server/internal/errors"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps an application error onto an HTTP status and a JSON
// body. Failures always surface; a silent no-op would leave clients
// showing stale state.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, svcErr.HTTPStatus(err), map[string]string{
		"error": err.Error(),
		"kind":  svcErr.KindOf(err).String(),
	})
}

// CallerID extracts the authenticated user id the identity layer put on
// the request. Authentication itself lives in front of this service.
func CallerID(r *http.Request) (string, error) {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		return "", svcErr.Validation("missing X-User-ID header")
	}
	return id, nil
}
