package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"movie-favorites/internal/apperr"
	"movie-favorites/internal/config"
)

var errPasswordMismatch = errors.New("password does not match")

// PasswordHasher turns a plaintext password into a salted one-way hash and
// checks a password against a stored hash. Compare returns errPasswordMismatch
// when the password is wrong.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(encoded, password string) error
}

// Argon2Hasher produces PHC-encoded argon2id hashes.
type Argon2Hasher struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func NewArgon2Hasher() Argon2Hasher {
	return Argon2Hasher{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (h Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.Iterations, h.Memory, h.Parallelism, h.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.Memory,
		h.Iterations,
		h.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h Argon2Hasher) Compare(encoded, password string) error {
	// $argon2id$v=19$m=X,t=Y,p=Z$salt$hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return errors.New("invalid argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return errors.New("unsupported argon2id version")
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return fmt.Errorf("parse argon2id params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("decode salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("decode hash: %w", err)
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	if subtle.ConstantTimeCompare(computed, expected) != 1 {
		return errPasswordMismatch
	}
	return nil
}

type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher() BcryptHasher {
	return BcryptHasher{Cost: bcrypt.DefaultCost}
}

func (h BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.BadRequest("password must be at most 72 bytes")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h BcryptHasher) Compare(encoded, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return errPasswordMismatch
	default:
		return fmt.Errorf("compare bcrypt hash: %w", err)
	}
}

// SchemeHasher hashes with the configured scheme and verifies any stored hash
// by its prefix, so rows written under a previous scheme keep working.
type SchemeHasher struct {
	primary PasswordHasher
	argon   PasswordHasher
	bcrypt  PasswordHasher
}

func NewSchemeHasher(scheme string, argonHasher, bcryptHasher PasswordHasher) (*SchemeHasher, error) {
	h := &SchemeHasher{argon: argonHasher, bcrypt: bcryptHasher}
	switch scheme {
	case config.HashArgon2id:
		h.primary = argonHasher
	case config.HashBcrypt:
		h.primary = bcryptHasher
	default:
		return nil, fmt.Errorf("unknown password hash scheme %q", scheme)
	}
	return h, nil
}

func (h *SchemeHasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

func (h *SchemeHasher) Compare(encoded, password string) error {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return h.argon.Compare(encoded, password)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return h.bcrypt.Compare(encoded, password)
	default:
		return errors.New("unrecognized password hash format")
	}
}
