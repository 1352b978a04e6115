package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrMalformedPasswordHash       = errors.New("malformed password hash")
	ErrIncompatiblePasswordVersion = errors.New("incompatible password hash version")
)

// Argon2idParams sizes the argon2id derivation. Stored hashes embed their own
// parameters, so these only govern newly created hashes.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams follows the RFC 9106 low-memory recommendation.
var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// CreatePasswordHash derives an argon2id hash in the standard
// $argon2id$v=19$m=..,t=..,p=..$salt$hash encoding.
func CreatePasswordHash(password string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		params.Memory, params.Iterations, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword checks password against a stored hash, re-deriving with the
// parameters the hash itself records. A mismatch is ErrInvalidCredentials;
// a hash this service could never have written is ErrMalformedPasswordHash.
func VerifyPassword(hashedPassword, password string) error {
	salt, key, params, err := decodeArgon2idHash(hashedPassword)
	if err != nil {
		return err
	}

	derived := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
	if subtle.ConstantTimeCompare(key, derived) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

func decodeArgon2idHash(encoded string) (salt, key []byte, params Argon2idParams, err error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		err = ErrMalformedPasswordHash
		return
	}

	var version int
	if _, scanErr := fmt.Sscanf(fields[2], "v=%d", &version); scanErr != nil {
		err = ErrMalformedPasswordHash
		return
	}
	if version != argon2.Version {
		err = ErrIncompatiblePasswordVersion
		return
	}

	if _, scanErr := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); scanErr != nil {
		err = ErrMalformedPasswordHash
		return
	}

	salt, err = base64.RawStdEncoding.DecodeString(fields[4])
	if err != nil || len(salt) == 0 {
		err = ErrMalformedPasswordHash
		return
	}
	key, err = base64.RawStdEncoding.DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		err = ErrMalformedPasswordHash
		return
	}

	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))
	return
}
