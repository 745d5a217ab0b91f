// internal/auth/password.go
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var ErrInvalidHash = errors.New("invalid password hash")

// PasswordConfig holds the argon2id cost parameters
type PasswordConfig struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultPasswordConfig is used for every new hash
var DefaultPasswordConfig = PasswordConfig{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

type PasswordHasher struct {
	config PasswordConfig
}

func NewPasswordHasher() *PasswordHasher {
	return NewPasswordHasherWithConfig(DefaultPasswordConfig)
}

func NewPasswordHasherWithConfig(cfg PasswordConfig) *PasswordHasher {
	return &PasswordHasher{config: cfg}
}

func (p *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, p.config.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, p.config.Time, p.config.Memory, p.config.Threads, p.config.KeyLen)

	// Format: $argon2id$v=19$m=65536,t=1,p=4$salt$hash
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.config.Memory,
		p.config.Time,
		p.config.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func (p *PasswordHasher) Verify(password, encodedHash string) (bool, error) {
	cfg, salt, hash, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	comparisonHash := argon2.IDKey([]byte(password), salt, cfg.Time, cfg.Memory, cfg.Threads, cfg.KeyLen)
	return subtle.ConstantTimeCompare(hash, comparisonHash) == 1, nil
}

// NeedsRehash reports whether encodedHash was made with different cost parameters
// than the hasher's current ones.
func (p *PasswordHasher) NeedsRehash(encodedHash string) bool {
	cfg, _, _, err := decodeHash(encodedHash)
	if err != nil {
		return true
	}
	return cfg.Time != p.config.Time ||
		cfg.Memory != p.config.Memory ||
		cfg.Threads != p.config.Threads ||
		cfg.KeyLen != p.config.KeyLen
}

func decodeHash(encodedHash string) (PasswordConfig, []byte, []byte, error) {
	var cfg PasswordConfig

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return cfg, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return cfg, nil, nil, fmt.Errorf("%w: unsupported version", ErrInvalidHash)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &cfg.Memory, &cfg.Time, &cfg.Threads); err != nil {
		return cfg, nil, nil, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	if cfg.Memory == 0 || cfg.Time == 0 || cfg.Threads == 0 {
		return cfg, nil, nil, fmt.Errorf("%w: zero cost parameter", ErrInvalidHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return cfg, nil, nil, fmt.Errorf("%w: digest", ErrInvalidHash)
	}

	cfg.SaltLen = uint32(len(salt))
	cfg.KeyLen = uint32(len(hash))
	return cfg, salt, hash, nil
}
