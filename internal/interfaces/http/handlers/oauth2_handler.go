package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ipede/oauth2-server/internal/application"
	"github.com/ipede/oauth2-server/internal/domain"
	httperrors "github.com/ipede/oauth2-server/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// OAuth2Handler exposes the protocol engine over HTTP. It stays thin: parse
// the form into an OAuth2Request, authenticate the client, dispatch, write
// the result. All protocol decisions live in the application layer.
type OAuth2Handler struct {
	authenticator *application.ClientAuthenticator
	dispatcher    *application.Dispatcher
	clientRepo    domain.ClientRepository
	tokenService  domain.TokenService
	logger        *zap.Logger
}

// NewOAuth2Handler creates a new OAuth2Handler
func NewOAuth2Handler(
	authenticator *application.ClientAuthenticator,
	dispatcher *application.Dispatcher,
	clientRepo domain.ClientRepository,
	tokenService domain.TokenService,
	logger *zap.Logger,
) *OAuth2Handler {
	return &OAuth2Handler{
		authenticator: authenticator,
		dispatcher:    dispatcher,
		clientRepo:    clientRepo,
		tokenService:  tokenService,
		logger:        logger,
	}
}

// Token handles POST /oauth2/token for every grant type
func (h *OAuth2Handler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Debug("Malformed token request", zap.Error(err))
		httperrors.RespondWithOAuthError(w, domain.NewInvalidRequest("Malformed request body!"))
		return
	}

	req := requestFromForm(r)
	clientSecret := formValue(r, "client_secret")

	client, err := h.authenticator.Authenticate(r.Context(), req, clientSecret)
	if err != nil {
		httperrors.RespondWithOAuthError(w, err)
		return
	}

	// the implicit grant only exists at the authorization endpoint
	if req.Body.GrantType == domain.GrantTypeImplicit {
		httperrors.RespondWithOAuthError(w, domain.NewInvalidGrant("Implicit grant is not allowed at the token endpoint!"))
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), req, client)
	if err != nil {
		httperrors.RespondWithOAuthError(w, err)
		return
	}

	writeGrantResult(w, r, result)
}

// Authorize handles GET /oauth2/authorize. The fronting layer is expected to
// have authenticated the resource owner and to pass the username along; this
// server does not render consent pages.
func (h *OAuth2Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	clientID := query.Get("client_id")
	if clientID == "" {
		httperrors.RespondWithOAuthError(w, domain.NewInvalidRequest("Missing client id!"))
		return
	}

	client, err := h.clientRepo.FindByID(r.Context(), clientID)
	if err != nil {
		if errors.Is(err, domain.ErrStorageUnavailable) {
			httperrors.RespondWithOAuthError(w, err)
			return
		}
		h.logger.Debug("Unknown client on authorize", zap.String("client_id", clientID))
		httperrors.RespondWithOAuthError(w, domain.NewInvalidClient("Wrong client credentials!"))
		return
	}

	req := &domain.OAuth2Request{
		Auth: domain.RequestAuth{
			ClientID: clientID,
			Username: query.Get("username"),
		},
		Body: domain.RequestBody{
			ResponseType: query.Get("response_type"),
			Scopes:       splitScopes(query.Get("scope")),
			Scoped:       query.Get("scope") != "",
		},
		Response: domain.AuthorizationResponse{
			RedirectURI: query.Get("redirect_uri"),
			State:       query.Get("state"),
		},
	}

	switch req.Body.ResponseType {
	case domain.ResponseTypeCode:
		req.Body.GrantType = domain.GrantTypeAuthorizationCode
	case domain.ResponseTypeToken:
		req.Body.GrantType = domain.GrantTypeImplicit
	default:
		httperrors.RespondWithOAuthError(w, domain.NewUnsupportedResponseType(req.Body.ResponseType))
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), req, client)
	if err != nil {
		httperrors.RespondWithOAuthError(w, err)
		return
	}

	writeGrantResult(w, r, result)
}

// Revoke handles POST /oauth2/revoke. A client may only revoke tokens it
// owns; either token of a pair takes the whole pair down.
func (h *OAuth2Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Debug("Malformed revoke request", zap.Error(err))
		httperrors.RespondWithOAuthError(w, domain.NewInvalidRequest("Malformed request body!"))
		return
	}

	req := requestFromForm(r)
	req.Body.GrantType = domain.GrantTypeRefreshToken // client auth path only, never dispatched
	client, err := h.authenticator.Authenticate(r.Context(), req, formValue(r, "client_secret"))
	if err != nil {
		httperrors.RespondWithOAuthError(w, err)
		return
	}

	value := formValue(r, "token")
	if value == "" {
		httperrors.RespondWithOAuthError(w, domain.NewInvalidRequest("Missing token!"))
		return
	}

	if formValue(r, "token_type_hint") == domain.TokenTypeRefresh {
		h.revokeRefresh(w, r, client, value)
		return
	}
	h.revokeAccess(w, r, client, value)
}

func (h *OAuth2Handler) revokeAccess(w http.ResponseWriter, r *http.Request, client *domain.ClientDetails, value string) {
	token, err := h.tokenService.LookupAccessToken(r.Context(), value)
	if err != nil {
		// RFC 7009 treats unknown tokens as already revoked
		httperrors.RespondWithJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}
	if token.ClientID != client.ID {
		httperrors.RespondWithOAuthError(w, domain.NewInvalidGrant("Token does not belong to client!"))
		return
	}
	if err := h.tokenService.RevokeByAccessToken(r.Context(), value); err != nil {
		httperrors.RespondWithOAuthError(w, err)
		return
	}
	httperrors.RespondWithJSON(w, http.StatusOK, map[string]interface{}{})
}

func (h *OAuth2Handler) revokeRefresh(w http.ResponseWriter, r *http.Request, client *domain.ClientDetails, value string) {
	token, err := h.tokenService.LookupRefreshToken(r.Context(), value)
	if err != nil {
		httperrors.RespondWithJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}
	if token.ClientID != client.ID {
		httperrors.RespondWithOAuthError(w, domain.NewInvalidGrant("Token does not belong to client!"))
		return
	}
	if err := h.tokenService.RevokeByRefreshToken(r.Context(), value); err != nil {
		httperrors.RespondWithOAuthError(w, err)
		return
	}
	httperrors.RespondWithJSON(w, http.StatusOK, map[string]interface{}{})
}

func requestFromForm(r *http.Request) *domain.OAuth2Request {
	scope := formValue(r, "scope")
	return &domain.OAuth2Request{
		Auth: domain.RequestAuth{
			ClientID: formValue(r, "client_id"),
			Username: formValue(r, "username"),
			Code:     formValue(r, "code"),
		},
		Body: domain.RequestBody{
			GrantType:     formValue(r, "grant_type"),
			ResponseType:  formValue(r, "response_type"),
			Scopes:        splitScopes(scope),
			Scoped:        scope != "",
			RefreshToken:  formValue(r, "refresh_token"),
			TokenToRevoke: formValue(r, "token"),
			Intent:        formValue(r, "intent"),
			Assertion:     formValue(r, "assertion"),
		},
		Response: domain.AuthorizationResponse{
			RedirectURI: formValue(r, "redirect_uri"),
			State:       formValue(r, "state"),
		},
	}
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

func splitScopes(scope string) []string {
	if scope == "" {
		return nil
	}
	return strings.Fields(scope)
}

func writeGrantResult(w http.ResponseWriter, r *http.Request, result *domain.GrantResult) {
	if result.Redirect != "" {
		http.Redirect(w, r, result.Redirect, result.Status)
		return
	}
	httperrors.RespondWithJSON(w, result.Status, result.JSON)
}
