package risc

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/ipede/oauth2-server/internal/infrastructure/keys"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	contentType       = "application/secevent+jwt"
	tokenRevokedEvent = "https://schemas.openid.net/secevent/oauth/event-type/token-revoked"
)

var errNotAccepted = errors.New("delivery not accepted")

// Notifier delivers signed secevent JWTs to the RISC endpoints of relying
// clients after a bulk revocation. Each affected token is delivered by its
// own unit of work on a bounded pool; the caller that triggered the revoke
// never waits. Exhausting the retry budget abandons the delivery, the
// revocation itself is never rolled back.
type Notifier struct {
	keys        *keys.Set
	issuer      string
	client      *http.Client
	backoff     time.Duration
	maxAttempts int
	logger      *zap.Logger

	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Options configures the notifier's delivery behaviour
type Options struct {
	Issuer      string
	Workers     int
	Backoff     time.Duration
	MaxAttempts int
	Timeout     time.Duration
}

// NewNotifier creates a notifier delivering with at most opts.Workers
// concurrent requests
func NewNotifier(keySet *keys.Set, opts Options, logger *zap.Logger) *Notifier {
	ctx, cancel := context.WithCancel(context.Background())
	return &Notifier{
		keys:        keySet,
		issuer:      opts.Issuer,
		client:      &http.Client{Timeout: opts.Timeout},
		backoff:     opts.Backoff,
		maxAttempts: opts.MaxAttempts,
		logger:      logger,
		sem:         semaphore.NewWeighted(int64(opts.Workers)),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// NotifyRevocation schedules one delivery per revoked token and returns
// immediately
func (n *Notifier) NotifyRevocation(client *domain.ClientDetails, tokens []domain.RevokedToken) {
	if !client.HasRISCEndpoint() {
		return
	}
	for _, token := range tokens {
		n.wg.Add(1)
		go func(token domain.RevokedToken) {
			defer n.wg.Done()
			if err := n.sem.Acquire(n.ctx, 1); err != nil {
				return
			}
			defer n.sem.Release(1)
			n.deliver(client, token)
		}(token)
	}
}

// Close stops new retries and waits for in-flight deliveries, up to the
// context deadline
func (n *Notifier) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		n.cancel()
		return nil
	case <-ctx.Done():
		n.cancel()
		return ctx.Err()
	}
}

// deliver retries the POST on a fixed interval until accepted or the attempt
// budget is spent
func (n *Notifier) deliver(client *domain.ClientDetails, token domain.RevokedToken) {
	operation := func() (struct{}, error) {
		return struct{}{}, n.send(client, token)
	}

	_, err := backoff.Retry(n.ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(n.backoff)),
		backoff.WithMaxTries(uint(n.maxAttempts)),
		backoff.WithNotify(func(err error, _ time.Duration) {
			n.logger.Warn("RISC delivery attempt failed",
				zap.String("client_id", client.ID),
				zap.String("token_type", token.Type),
				zap.Error(err))
		}),
	)
	if err != nil {
		// fire and forget: nothing left to do but record it
		n.logger.Warn("Abandoning RISC delivery",
			zap.String("client_id", client.ID),
			zap.String("risc_uri", client.RISCURI),
			zap.String("token_type", token.Type),
			zap.Error(err))
	}
}

// send signs and posts one secevent JWT
func (n *Notifier) send(client *domain.ClientDetails, token domain.RevokedToken) error {
	signed, err := n.sign(client, token)
	if err != nil {
		return backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(n.ctx, http.MethodPost, client.RISCURI, bytes.NewBufferString(signed))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return errNotAccepted
	}

	n.logger.Debug("Delivered revocation event",
		zap.String("client_id", client.ID),
		zap.String("token_type", token.Type))
	return nil
}

// sign builds the secevent claims and signs them with a randomly selected
// key from the active set
func (n *Notifier) sign(client *domain.ClientDetails, token domain.RevokedToken) (string, error) {
	key, err := n.keys.Random()
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"iss": n.issuer,
		"aud": client.RISCAudience,
		"iat": time.Now().Unix(),
		"jti": uuid.NewString(),
		"events": map[string]interface{}{
			tokenRevokedEvent: map[string]interface{}{
				"token_type":           token.Type,
				"token_identifier_alg": "hash_SHA256_double",
				"token":                doubleHash(token.Value),
			},
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	t.Header["kid"] = key.ID
	return t.SignedString(key.Private)
}

// doubleHash applies SHA-256 twice so the event never carries a usable or
// directly comparable token value
func doubleHash(value string) string {
	first := sha256.Sum256([]byte(value))
	second := sha256.Sum256(first[:])
	return hex.EncodeToString(second[:])
}
