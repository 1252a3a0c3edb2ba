package domain

// Grant types supported by the dispatcher
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeImplicit          = "implicit"
	GrantTypeRefreshToken      = "refresh_token"
	GrantTypeJWTBearer         = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// Response types for the authorization_code grant
const (
	ResponseTypeCode  = "code"
	ResponseTypeToken = "token"
)

// Linking intents for the jwt-bearer grant
const (
	IntentCheck  = "check"
	IntentGet    = "get"
	IntentCreate = "create"
)

// RequestAuth carries the identity portion of an OAuth2 request
type RequestAuth struct {
	ClientID string
	Username string
	Code     string
}

// RequestBody carries the grant parameters of an OAuth2 request
type RequestBody struct {
	GrantType     string
	ResponseType  string
	Scopes        []string
	Scoped        bool
	Refreshable   bool
	RefreshToken  string
	TokenToRevoke string
	Intent        string
	Assertion     string
}

// AuthorizationResponse carries the redirect portion of an OAuth2 request,
// used by the code and implicit flows
type AuthorizationResponse struct {
	RedirectURI string
	State       string
}

// OAuth2Request aggregates everything the grant handlers need about one
// inbound call. It is built once per request and never mutated; use the
// With* helpers when a derived request is needed.
type OAuth2Request struct {
	Auth     RequestAuth
	Body     RequestBody
	Response AuthorizationResponse
}

// WithScopes returns a copy of the request carrying the given scope set
func (r *OAuth2Request) WithScopes(scopes []string, scoped bool) *OAuth2Request {
	out := *r
	out.Body.Scopes = append([]string(nil), scopes...)
	out.Body.Scoped = scoped
	return &out
}

// WithUsername returns a copy of the request bound to the given user
func (r *OAuth2Request) WithUsername(username string) *OAuth2Request {
	out := *r
	out.Auth.Username = username
	return &out
}

// WithClientID returns a copy of the request bound to the given client
func (r *OAuth2Request) WithClientID(clientID string) *OAuth2Request {
	out := *r
	out.Auth.ClientID = clientID
	return &out
}

// GrantResult is what a grant handler produces: either a JSON body with a
// status, or a redirect target. Exactly one of JSON and Redirect is set.
type GrantResult struct {
	Status   int
	JSON     interface{}
	Redirect string
}

// TokenResponse is the JSON body returned on successful token issuance
type TokenResponse struct {
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
}
