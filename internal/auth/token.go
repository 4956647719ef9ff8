// Package auth creates server tokens and checks them against their stored
// argon2id hash.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	TokenPrefix = "arb_"

	secretBytes = 24

	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

var (
	ErrInvalidHash  = errors.New("invalid token hash")
	ErrInvalidToken = errors.New("invalid token")
)

// GenerateToken returns a fresh random server token.
func GenerateToken() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return TokenPrefix + hex.EncodeToString(buf), nil
}

// HashToken encodes an argon2id hash of token with a random salt in PHC
// form: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func HashToken(token string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(token), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

type params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parseHash(encoded string) (*params, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, ErrInvalidHash
	}

	p := &params{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, ErrInvalidHash
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, ErrInvalidHash
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return nil, ErrInvalidHash
	}
	return p, nil
}

func (p *params) matches(token string) bool {
	key := argon2.IDKey([]byte(token), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(key, p.key) == 1
}

// Verifier accepts the one token whose hash it holds. Accepted tokens are
// remembered by digest so argon2 runs once per distinct token.
type Verifier struct {
	params *params

	mu       sync.Mutex
	accepted map[[sha256.Size]byte]struct{}
}

func NewVerifier(hash string) (*Verifier, error) {
	p, err := parseHash(hash)
	if err != nil {
		return nil, err
	}
	return &Verifier{params: p, accepted: make(map[[sha256.Size]byte]struct{})}, nil
}

// Verify returns ErrInvalidToken unless token is the server token.
func (v *Verifier) Verify(token string) error {
	if !strings.HasPrefix(token, TokenPrefix) {
		return ErrInvalidToken
	}

	digest := sha256.Sum256([]byte(token))
	v.mu.Lock()
	_, ok := v.accepted[digest]
	v.mu.Unlock()
	if ok {
		return nil
	}

	if !v.params.matches(token) {
		return ErrInvalidToken
	}

	v.mu.Lock()
	v.accepted[digest] = struct{}{}
	v.mu.Unlock()
	return nil
}
