package handlers

import (
	"net/http"

	"github.com/ipede/oauth2-server/internal/infrastructure/keys"
	"go.uber.org/zap"
)

// JWKSHandler publishes the server's signing keys so RISC receivers can
// verify secevent tokens
type JWKSHandler struct {
	keySet *keys.Set
	logger *zap.Logger
}

// NewJWKSHandler creates a new JWKSHandler
func NewJWKSHandler(keySet *keys.Set, logger *zap.Logger) *JWKSHandler {
	return &JWKSHandler{keySet: keySet, logger: logger}
}

// Keys handles GET /.well-known/jwks.json
func (h *JWKSHandler) Keys(w http.ResponseWriter, r *http.Request) {
	body, err := h.keySet.JWKS()
	if err != nil {
		h.logger.Error("Failed to build JWKS document", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
