package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"sync"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.uber.org/zap"
)

// SigningKey is one member of the rotating signing key set
type SigningKey struct {
	ID      string
	Private *rsa.PrivateKey
}

// Set holds a small fixed set of RSA signing keys generated at construction.
// It is built once by the composition root and injected wherever signing or
// JWKS publication is needed; there is no global lookup.
type Set struct {
	mu     sync.RWMutex
	keys   []*SigningKey
	bits   int
	logger *zap.Logger
}

// NewSet generates count RSA key pairs of the given size
func NewSet(count, bits int, logger *zap.Logger) (*Set, error) {
	s := &Set{bits: bits, logger: logger}
	keys, err := s.generate(count)
	if err != nil {
		return nil, err
	}
	s.keys = keys
	logger.Info("Generated signing key set", zap.Int("count", count), zap.Int("bits", bits))
	return s, nil
}

// Random returns a uniformly chosen key from the set
func (s *Set) Random() (*SigningKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(s.keys))))
	if err != nil {
		return nil, err
	}
	return s.keys[n.Int64()], nil
}

// Lookup finds a key by its id
func (s *Set) Lookup(kid string) (*SigningKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, k := range s.keys {
		if k.ID == kid {
			return k, true
		}
	}
	return nil, false
}

// Rotate replaces every key in the set. The published JWKS reflects the new
// keys on the next read.
func (s *Set) Rotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.generate(len(s.keys))
	if err != nil {
		return err
	}
	s.keys = keys
	s.logger.Info("Rotated signing key set", zap.Int("count", len(keys)))
	return nil
}

// JWKS returns the public JWK set document for the active keys
func (s *Set) JWKS() (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := jwk.NewSet()
	for _, k := range s.keys {
		pub, err := jwk.FromRaw(&k.Private.PublicKey)
		if err != nil {
			s.logger.Error("Failed to convert public key to JWK", zap.Error(err))
			return nil, err
		}
		if err := pub.Set(jwk.KeyIDKey, k.ID); err != nil {
			return nil, err
		}
		if err := pub.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
			return nil, err
		}
		if err := pub.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
			return nil, err
		}
		if err := set.AddKey(pub); err != nil {
			return nil, err
		}
	}
	return json.Marshal(set)
}

func (s *Set) generate(count int) ([]*SigningKey, error) {
	keys := make([]*SigningKey, 0, count)
	for i := 0; i < count; i++ {
		private, err := rsa.GenerateKey(rand.Reader, s.bits)
		if err != nil {
			return nil, err
		}
		keys = append(keys, &SigningKey{ID: keyID(private), Private: private})
	}
	return keys, nil
}

// keyID derives a stable identifier from the public key material
func keyID(key *rsa.PrivateKey) string {
	hash := sha256.Sum256(key.N.Bytes())
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
