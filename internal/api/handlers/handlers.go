// Package handlers implements the HTTP API. Each resource gets its own
// handler struct bound to a narrow view of the store.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dvloznov/wealth-tracker/internal/api/middleware"
	"github.com/dvloznov/wealth-tracker/internal/store"
)

// decode reads a JSON request body. Unknown fields are rejected so typos in
// client payloads fail loudly.
func decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeStoreError maps store errors onto HTTP responses.
func writeStoreError(w http.ResponseWriter, err error, notFoundMsg string) {
	if errors.Is(err, store.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, notFoundMsg)
		return
	}
	middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
}

// userID pulls the authenticated user out of the request context. The auth
// middleware guarantees it is present on protected routes.
func userID(r *http.Request) (string, bool) {
	return middleware.UserID(r.Context())
}
