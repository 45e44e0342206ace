package veneer

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hasher performs one-way hashing of a rendered value.
type Hasher interface {
	// Hash returns the encoded hash of plaintext. Salted hashers embed their
	// salt and parameters; deterministic hashers return lowercase hex.
	Hash(plaintext []byte) (string, error)
}

// HasherFunc adapts a function into a Hasher.
type HasherFunc func([]byte) (string, error)

// Hash calls f(plaintext).
func (f HasherFunc) Hash(plaintext []byte) (string, error) { return f(plaintext) }

// Argon2Params configures Argon2id hashing.
type Argon2Params struct {
	Time    uint32 // Number of iterations
	Memory  uint32 // Memory usage in KiB
	Threads uint8  // Parallelism factor
	KeyLen  uint32 // Output key length
	SaltLen uint32 // Salt length
}

// DefaultArgon2Params returns the OWASP-recommended Argon2id parameters.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:    1,
		Memory:  64 * 1024,
		Threads: 4,
		KeyLen:  32,
		SaltLen: 16,
	}
}

// Argon2 returns an Argon2id hasher with default parameters.
func Argon2() Hasher {
	return Argon2WithParams(DefaultArgon2Params())
}

// Argon2WithParams returns an Argon2id hasher encoding results in the PHC
// string format: $argon2id$v=19$m=..,t=..,p=..$<salt>$<hash>.
func Argon2WithParams(p Argon2Params) Hasher {
	return HasherFunc(func(plaintext []byte) (string, error) {
		salt := make([]byte, p.SaltLen)
		if _, err := rand.Read(salt); err != nil {
			return "", fmt.Errorf("generate salt: %w", err)
		}
		sum := argon2.IDKey(plaintext, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
		return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
			argon2.Version, p.Memory, p.Time, p.Threads,
			base64.RawStdEncoding.EncodeToString(salt),
			base64.RawStdEncoding.EncodeToString(sum),
		), nil
	})
}

// BcryptCost represents the bcrypt cost factor.
type BcryptCost int

// Bcrypt cost constants.
const (
	BcryptMinCost     BcryptCost = BcryptCost(bcrypt.MinCost)
	BcryptDefaultCost BcryptCost = BcryptCost(bcrypt.DefaultCost)
	BcryptMaxCost     BcryptCost = BcryptCost(bcrypt.MaxCost)
)

// Bcrypt returns a bcrypt hasher with default cost.
func Bcrypt() Hasher {
	return BcryptWithCost(BcryptDefaultCost)
}

// BcryptWithCost returns a bcrypt hasher with a specific cost factor.
func BcryptWithCost(cost BcryptCost) Hasher {
	return HasherFunc(func(plaintext []byte) (string, error) {
		sum, err := bcrypt.GenerateFromPassword(plaintext, int(cost))
		if err != nil {
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(sum), nil
	})
}

// SHA256Hasher returns a hasher producing a 64-character hex digest.
func SHA256Hasher() Hasher {
	return HasherFunc(func(plaintext []byte) (string, error) {
		sum := sha256.Sum256(plaintext)
		return hex.EncodeToString(sum[:]), nil
	})
}

// SHA512Hasher returns a hasher producing a 128-character hex digest.
func SHA512Hasher() Hasher {
	return HasherFunc(func(plaintext []byte) (string, error) {
		sum := sha512.Sum512(plaintext)
		return hex.EncodeToString(sum[:]), nil
	})
}

// builtinHashers returns the default hasher table.
func builtinHashers() map[HashAlgo]Hasher {
	return map[HashAlgo]Hasher{
		HashArgon2: Argon2(),
		HashBcrypt: Bcrypt(),
		HashSHA256: SHA256Hasher(),
		HashSHA512: SHA512Hasher(),
	}
}
