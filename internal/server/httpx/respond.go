package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/users"
)

const (
	msgInvalidCredentials = "Invalid credentials."
	msgNotAuthorized      = "Not authorized to perform requested action."
	msgTokenExpired       = "Your token has expired."
	msgTokenMalformed     = "Unable to decode JWT token."
	msgInternal           = "internal error"
)

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends a {"detail": msg} body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// errorSubject carries request values some error messages name.
type errorSubject struct {
	Username string
	Email    string
}

// errorResponse maps a service error to a status and a single-line detail
// that never exposes storage internals.
func errorResponse(err error, subj errorSubject) (int, string) {
	switch {
	case errors.Is(err, common.ErrDuplicateEmail):
		return http.StatusBadRequest, fmt.Sprintf("%s already exist in the database.", subj.Email)
	case errors.Is(err, common.ErrDuplicateUsername):
		return http.StatusBadRequest, fmt.Sprintf("%s is already taken.", subj.Username)
	case errors.Is(err, common.ErrBadRequest):
		return http.StatusBadRequest, badRequestMessage(err)
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusForbidden, msgInvalidCredentials
	case errors.Is(err, common.ErrNotAuthorized):
		return http.StatusForbidden, msgNotAuthorized
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, fmt.Sprintf("There is no record for: %s", subj.Username)
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, msgTokenExpired
	case errors.Is(err, common.ErrTokenMalformed):
		return http.StatusUnauthorized, msgTokenMalformed
	case errors.Is(err, common.ErrPersistence):
		return http.StatusUnprocessableEntity, persistenceMessage(err)
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func badRequestMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), common.ErrBadRequest.Error()+": ")
	if msg == "" {
		return common.ErrBadRequest.Error()
	}
	return singleLine(msg)
}

func persistenceMessage(err error) string {
	op := "save changes"
	var pe *common.PersistenceError
	if errors.As(err, &pe) && pe.Op != "" {
		op = pe.Op
	}

	diagnostic := "storage failure"
	var ce *users.ConflictError
	if errors.As(err, &ce) {
		diagnostic = ce.Field + " already in use"
	}

	return fmt.Sprintf("Unable to %s: %s", op, diagnostic)
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
