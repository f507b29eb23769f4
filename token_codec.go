package visitor

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// TokenPayload is the data carried inside an invitation token. The expiry is
// part of the payload so a link cannot be replayed after its window closes.
type TokenPayload struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Expired reports whether the payload's expiry has passed
func (p TokenPayload) Expired(now time.Time) bool {
	return p.ExpiresAt > 0 && now.Unix() > p.ExpiresAt
}

// TokenCodec seals small payloads into opaque hex tokens suitable for
// embedding in links. Tokens are AES-GCM encrypted under a key derived from
// the shared secret, so tampering fails to open and identical payloads
// produce distinct ciphertexts (random nonce per message).
type TokenCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenCodec derives a 256 bit key from the configured secret
func NewTokenCodec(cfg Config) *TokenCodec {
	key := sha256.Sum256([]byte(cfg.GetTokenSecret()))
	return &TokenCodec{
		key: key[:],
		ttl: time.Duration(cfg.GetTokenTTL()) * time.Second,
		now: time.Now,
	}
}

// WithClock overrides the time source, used by tests
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	c.now = now
	return c
}

func (c *TokenCodec) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create cipher")
	}
	return cipher.NewGCM(block)
}

// Encrypt serializes the payload, stamps issue/expiry times when unset, and
// returns the sealed message hex encoded as nonce||ciphertext.
func (c *TokenCodec) Encrypt(payload TokenPayload) (string, error) {
	now := c.now()
	if payload.IssuedAt == 0 {
		payload.IssuedAt = now.Unix()
	}
	if payload.ExpiresAt == 0 {
		payload.ExpiresAt = now.Add(c.ttl).Unix()
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to marshal token payload")
	}

	aead, err := c.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate nonce")
	}

	ciphertext := aead.Seal(nonce, nonce, plaintext, nil)

	return hex.EncodeToString(ciphertext), nil
}

// Decrypt decodes and opens a token, enforcing the embedded expiry
func (c *TokenCodec) Decrypt(token string) (*TokenPayload, error) {
	data, err := hex.DecodeString(token)
	if err != nil {
		return nil, ErrTokenDecoding
	}

	aead, err := c.aead()
	if err != nil {
		return nil, err
	}

	if len(data) < aead.NonceSize() {
		return nil, ErrTokenDecoding
	}

	nonce := data[:aead.NonceSize()]
	ciphertext := data[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrTokenPayload
	}

	payload := &TokenPayload{}
	if err := json.Unmarshal(plaintext, payload); err != nil {
		return nil, ErrTokenPayload
	}

	if payload.Expired(c.now()) {
		return nil, ErrTokenExpired
	}

	return payload, nil
}
