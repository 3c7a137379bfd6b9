// Package password hashes and verifies login passwords.
//
// New hashes are always Argon2id in PHC string format. Verification also
// understands the two layouts older databases may still hold: bcrypt hashes
// from the release before the Argon2 migration, and raw plaintext from
// hand-seeded development databases. Either legacy match is reported with
// NeedsMigration set so the caller can rehash and update the row.
package password

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/vaultscribe/vaultscribe/internal/common"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"
)

// scheme identifies the hash layout a stored value self-describes as.
// Anything without a recognized tag is treated as plaintext.
type scheme int

const (
	schemeArgon2id scheme = iota
	schemeBcrypt
	schemePlaintext
)

func classify(encoded string) scheme {
	switch {
	case strings.HasPrefix(encoded, "$"+algorithmID+"$"):
		return schemeArgon2id
	case strings.HasPrefix(encoded, "$2a$"),
		strings.HasPrefix(encoded, "$2b$"),
		strings.HasPrefix(encoded, "$2y$"):
		return schemeBcrypt
	default:
		return schemePlaintext
	}
}

// Params are the Argon2id cost settings. They are fixed at construction and
// embedded into every produced hash, so stored hashes verify with their own
// recorded parameters regardless of later configuration changes.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams matches the parameters the existing databases were hashed
// with: 64 MiB memory, 3 passes, 4 lanes, 16-byte salt, 32-byte key.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Verification is the outcome of checking a password against a stored hash.
// NeedsMigration is set when the match succeeded against a legacy scheme or
// against Argon2id parameters weaker than the configured ones.
type Verification struct {
	Match          bool
	NeedsMigration bool
}

// Hasher produces and verifies password hashes.
type Hasher struct {
	params Params
}

// NewHasher validates the cost settings and returns a Hasher.
func NewHasher(params Params) (*Hasher, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	return &Hasher{params: params}, nil
}

// Hash derives an Argon2id hash of plaintext under a fresh random salt and
// returns it in PHC string format.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt, err := common.GenerateRandBytes(int(h.params.SaltLength))
	if err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(plaintext),
		salt,
		h.params.Time,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify checks plaintext against a stored value of any supported scheme.
// Malformed stored values never error or panic: they yield a clean no-match.
// An empty stored value matches nothing. The plaintext is never logged or
// retained.
func (h *Hasher) Verify(plaintext string, encoded string) Verification {
	if encoded == "" {
		return Verification{}
	}

	switch classify(encoded) {
	case schemeArgon2id:
		parsed, err := parsePHC(encoded)
		if err != nil {
			return Verification{}
		}
		computed := argon2.IDKey(
			[]byte(plaintext),
			parsed.salt,
			parsed.time,
			parsed.memory,
			parsed.parallelism,
			parsed.keyLength,
		)
		if subtle.ConstantTimeCompare(computed, parsed.hash) != 1 {
			return Verification{}
		}
		return Verification{Match: true, NeedsMigration: h.needsRehash(parsed)}

	case schemeBcrypt:
		if bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext)) != nil {
			return Verification{}
		}
		return Verification{Match: true, NeedsMigration: true}

	default:
		// Raw column value, compared in constant time. Only pre-migration
		// development databases ever hold these.
		if subtle.ConstantTimeCompare([]byte(encoded), []byte(plaintext)) != 1 {
			return Verification{}
		}
		return Verification{Match: true, NeedsMigration: true}
	}
}

// needsRehash reports whether a matched hash was produced under weaker
// settings than the configured ones.
func (h *Hasher) needsRehash(parsed *parsedPHC) bool {
	if h.params.Memory > parsed.memory {
		return true
	}
	if h.params.Time > parsed.time {
		return true
	}
	if h.params.Parallelism > parsed.parallelism {
		return true
	}
	if h.params.KeyLength != parsed.keyLength {
		return true
	}
	return false
}

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
	keyLength   uint32
}

func parsePHC(encoded string) (*parsedPHC, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}

	if parts[1] != algorithmID {
		return nil, errors.New("unsupported algorithm")
	}

	if !strings.HasPrefix(parts[2], "v=") {
		return nil, errors.New("missing argon2 version")
	}
	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil {
		return nil, errors.New("invalid argon2 version")
	}
	if version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	params, err := parseParams(parts[3])
	if err != nil {
		return nil, err
	}

	salt, err := decodeB64(parts[4])
	if err != nil {
		return nil, errors.New("invalid salt encoding")
	}
	if len(salt) < int(minSaltLength) {
		return nil, errors.New("invalid salt length")
	}

	hash, err := decodeB64(parts[5])
	if err != nil {
		return nil, errors.New("invalid hash encoding")
	}
	if len(hash) == 0 {
		return nil, errors.New("invalid hash length")
	}

	return &parsedPHC{
		memory:      params.memory,
		time:        params.time,
		parallelism: params.parallelism,
		salt:        salt,
		hash:        hash,
		keyLength:   uint32(len(hash)),
	}, nil
}

// decodeB64 accepts both the PHC-standard unpadded form and the padded form
// some earlier tooling wrote.
func decodeB64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

type parsedParams struct {
	memory      uint32
	time        uint32
	parallelism uint8
}

func parseParams(part string) (*parsedParams, error) {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return nil, errors.New("invalid parameter format")
	}

	var (
		memorySet, timeSet, parallelismSet bool
		params                             parsedParams
	)

	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, errors.New("invalid parameter entry")
		}

		switch kv[0] {
		case "m":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v == 0 {
				return nil, errors.New("invalid memory parameter")
			}
			params.memory = uint32(v)
			memorySet = true
		case "t":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v == 0 {
				return nil, errors.New("invalid time parameter")
			}
			params.time = uint32(v)
			timeSet = true
		case "p":
			v, err := strconv.ParseUint(kv[1], 10, 8)
			if err != nil || v == 0 {
				return nil, errors.New("invalid parallelism parameter")
			}
			params.parallelism = uint8(v)
			parallelismSet = true
		default:
			return nil, errors.New("unsupported parameter")
		}
	}

	if !memorySet || !timeSet || !parallelismSet {
		return nil, errors.New("missing parameters")
	}

	return &params, nil
}

func validateParams(params Params) error {
	if params.Memory < minMemoryKB {
		return errors.New("password memory must be >= 8192 KB")
	}
	if params.Time < minTimeCost {
		return errors.New("password time must be >= 1")
	}
	if params.Parallelism < minParallelism {
		return errors.New("password parallelism must be >= 1")
	}
	if params.SaltLength < minSaltLength {
		return errors.New("password salt length must be >= 16")
	}
	if params.KeyLength < minKeyLength {
		return errors.New("password key length must be >= 16")
	}
	return nil
}
