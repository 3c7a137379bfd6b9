// Package totp implements the RFC 6238 time-based one-time-password scheme
// used as the second login factor: 160-bit shared secrets, 30-second steps,
// 6-digit codes, and a ±1-step verification window.
package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vaultscribe/vaultscribe/internal/common"
)

const (
	secretBytes = 20
	period      = 30
	digits      = 6
	skew        = 1
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Engine generates secrets and verifies codes for one issuer.
type Engine struct {
	issuer string
}

// NewEngine returns an Engine labeling provisioning URIs with issuer.
func NewEngine(issuer string) *Engine {
	return &Engine{issuer: issuer}
}

// GenerateSecret returns a fresh 160-bit secret in unpadded base32, the form
// both the database column and authenticator apps expect.
func (e *Engine) GenerateSecret() (string, error) {
	raw, err := common.GenerateRandBytes(secretBytes)
	if err != nil {
		return "", err
	}
	return b32.EncodeToString(raw), nil
}

// ProvisioningURI renders the otpauth:// key URI for QR display. The label
// percent-encodes the account, so "a@x.com" appears as "a%40x.com".
func (e *Engine) ProvisioningURI(secret, account string) string {
	label := escapeLabelPart(e.issuer) + ":" + escapeLabelPart(account)

	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", e.issuer)

	return "otpauth://totp/" + label + "?" + v.Encode()
}

// VerifyCode checks code against the secret at the given instant, accepting
// the current 30-second step and one step either side. On success it returns
// the matched counter so callers can reject replays inside the same window.
// A wrong code is (false, 0, nil); only an unusable secret is an error.
func (e *Engine) VerifyCode(secret, code string, now time.Time) (bool, int64, error) {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != digits || !isNumeric(trimmed) {
		return false, 0, nil
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return false, 0, err
	}

	baseCounter := now.Unix() / period
	for step := -skew; step <= skew; step++ {
		counter := baseCounter + int64(step)
		if counter < 0 {
			continue
		}
		generated := hotpCode(key, counter)
		if subtle.ConstantTimeCompare([]byte(generated), []byte(trimmed)) == 1 {
			return true, counter, nil
		}
	}

	return false, 0, nil
}

// CodeAt returns the code for the step containing the given instant.
func (e *Engine) CodeAt(secret string, now time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return hotpCode(key, now.Unix()/period), nil
}

func decodeSecret(secret string) ([]byte, error) {
	normalized := strings.ToUpper(strings.TrimRight(strings.TrimSpace(secret), "="))
	if normalized == "" {
		return nil, errors.New("empty totp secret")
	}
	key, err := b32.DecodeString(normalized)
	if err != nil {
		return nil, fmt.Errorf("malformed totp secret: %w", err)
	}
	return key, nil
}

func hotpCode(key []byte, counter int64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, bin%mod)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// escapeLabelPart percent-encodes everything outside the RFC 3986 unreserved
// set. Authenticator apps require the '@' in account labels encoded, which
// url.PathEscape would leave literal.
func escapeLabelPart(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
