package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/oklog/ulid/v2"
)

const (
	cipherKeyLength = 32 // AES-256
	payloadSep      = "|"
)

// Codec produces and resolves opaque token values. Each value is the AES-GCM
// encryption of "username|clientID|<ulid>" under a process-wide key, so the
// identity embedded in a token can only be recovered here. The trailing ulid
// makes every value distinct even for the same pair. Decode splits from the
// right, so usernames may contain the separator; client ids must not.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec creates a codec from a 32-byte key. An empty key generates an
// ephemeral one, which invalidates outstanding tokens on restart.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) == 0 {
		key = make([]byte, cipherKeyLength)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	}
	if len(key) != cipherKeyLength {
		return nil, domain.ErrInternal
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Codec{aead: aead}, nil
}

// Encode draws a fresh opaque value bound to the pair
func (c *Codec) Encode(username, clientID string) (string, error) {
	payload := username + payloadSep + clientID + payloadSep + ulid.Make().String()

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(payload), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode recovers the (username, clientID) pair embedded in an opaque value
func (c *Codec) Decode(value string) (username, clientID string, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return "", "", domain.ErrTokenNotFound
	}
	if len(raw) < c.aead.NonceSize() {
		return "", "", domain.ErrTokenNotFound
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	payload, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", "", domain.ErrTokenNotFound
	}

	plain := string(payload)
	last := strings.LastIndex(plain, payloadSep)
	if last < 0 {
		return "", "", domain.ErrTokenNotFound
	}
	rest := plain[:last]
	mid := strings.LastIndex(rest, payloadSep)
	if mid < 0 {
		return "", "", domain.ErrTokenNotFound
	}
	return rest[:mid], rest[mid+1:], nil
}
