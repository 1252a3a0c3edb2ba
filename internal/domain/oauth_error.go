package domain

import "net/http"

// OAuth2 error codes as they appear on the wire
const (
	ErrCodeInvalidRequest          = "invalid_request"
	ErrCodeInvalidClient           = "invalid_client"
	ErrCodeInvalidGrant            = "invalid_grant"
	ErrCodeInvalidScope            = "invalid_scope"
	ErrCodeUnauthorizedClient      = "unauthorized_client"
	ErrCodeUnsupportedGrantType    = "unsupported_grant_type"
	ErrCodeUnsupportedResponseType = "unsupported_response_type"
	ErrCodeAccessDenied            = "access_denied"
	ErrCodeLinkingError            = "linking_error"
)

// OAuthError is a protocol-level error carrying the wire code, a human
// readable description and the HTTP status it maps to. Extra fields are
// merged into the serialized JSON body.
type OAuthError struct {
	Code        string
	Description string
	Status      int
	Extra       map[string]interface{}
}

// Error returns the error description
func (e *OAuthError) Error() string {
	return e.Code + ": " + e.Description
}

// NewInvalidRequest creates an invalid_request error (400)
func NewInvalidRequest(description string) *OAuthError {
	return &OAuthError{Code: ErrCodeInvalidRequest, Description: description, Status: http.StatusBadRequest}
}

// NewInvalidClient creates an invalid_client error (401)
func NewInvalidClient(description string) *OAuthError {
	return &OAuthError{Code: ErrCodeInvalidClient, Description: description, Status: http.StatusUnauthorized}
}

// NewInvalidGrant creates an invalid_grant error (400)
func NewInvalidGrant(description string) *OAuthError {
	return &OAuthError{Code: ErrCodeInvalidGrant, Description: description, Status: http.StatusBadRequest}
}

// NewInvalidScope creates an invalid_scope error (400)
func NewInvalidScope(description string) *OAuthError {
	return &OAuthError{Code: ErrCodeInvalidScope, Description: description, Status: http.StatusBadRequest}
}

// NewUnauthorizedClient creates an unauthorized_client error (400)
func NewUnauthorizedClient(description string) *OAuthError {
	return &OAuthError{Code: ErrCodeUnauthorizedClient, Description: description, Status: http.StatusBadRequest}
}

// NewUnsupportedGrantType creates an unsupported_grant_type error (400)
func NewUnsupportedGrantType(grantType string) *OAuthError {
	return &OAuthError{Code: ErrCodeUnsupportedGrantType, Description: "Unsupported grant type: " + grantType, Status: http.StatusBadRequest}
}

// NewUnsupportedResponseType creates an unsupported_response_type error (400)
func NewUnsupportedResponseType(responseType string) *OAuthError {
	return &OAuthError{Code: ErrCodeUnsupportedResponseType, Description: "Unsupported response type: " + responseType, Status: http.StatusBadRequest}
}

// NewAccessDenied creates an access_denied error (400)
func NewAccessDenied(description string) *OAuthError {
	return &OAuthError{Code: ErrCodeAccessDenied, Description: description, Status: http.StatusBadRequest}
}

// NewLinkingError creates a linking_error (401) with a login hint for the
// asserting party
func NewLinkingError(description, loginHint string) *OAuthError {
	return &OAuthError{
		Code:        ErrCodeLinkingError,
		Description: description,
		Status:      http.StatusUnauthorized,
		Extra:       map[string]interface{}{"login_hint": loginHint},
	}
}
