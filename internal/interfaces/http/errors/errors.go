package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ipede/oauth2-server/internal/domain"
)

// RespondWithOAuthError converts an error raised anywhere in the protocol
// engine to the wire format: {"error","error_description",...extra} plus the
// matching HTTP status. This is the single place where typed errors become
// response bodies.
func RespondWithOAuthError(w http.ResponseWriter, err error) {
	var oauthErr *domain.OAuthError
	if errors.As(err, &oauthErr) {
		body := map[string]interface{}{
			"error":             oauthErr.Code,
			"error_description": oauthErr.Description,
		}
		for k, v := range oauthErr.Extra {
			body[k] = v
		}
		respond(w, oauthErr.Status, body)
		return
	}

	if errors.Is(err, domain.ErrStorageUnavailable) {
		respond(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error":             "temporarily_unavailable",
			"error_description": "Storage unavailable",
		})
		return
	}

	respond(w, http.StatusInternalServerError, map[string]interface{}{
		"error":             "server_error",
		"error_description": "Internal server error",
	})
}

// RespondWithJSON writes a JSON body with the given status
func RespondWithJSON(w http.ResponseWriter, status int, body interface{}) {
	respond(w, status, body)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
