package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Subject is the account state a confirmation code is bound to. Changing any of
// these fields invalidates codes issued before the change.
type Subject struct {
	ID        string
	Email     string
	LastLogin *time.Time
}

// ConfirmationCodes issues and checks stateless confirmation codes. A code is
// "<base36 unix time>-<hex hmac>" and stays valid for ttl.
type ConfirmationCodes struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewConfirmationCodes(secret string, ttl time.Duration) (*ConfirmationCodes, error) {
	if secret == "" {
		return nil, errors.New("confirmation secret cannot be empty")
	}
	// separate key from the JWT signing key
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), []byte("yamdb.confirmation"), []byte("confirmation-code"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive confirmation key: %w", err)
	}
	return &ConfirmationCodes{key: key, ttl: ttl, now: time.Now}, nil
}

// Make returns a new code for the subject
func (c *ConfirmationCodes) Make(s Subject) string {
	return c.makeAt(s, c.now().Unix())
}

// Check reports whether code was issued for s and has not expired
func (c *ConfirmationCodes) Check(s Subject, code string) bool {
	tsPart, _, ok := strings.Cut(code, "-")
	if !ok {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil || ts < 0 {
		return false
	}
	if !hmac.Equal([]byte(c.makeAt(s, ts)), []byte(code)) {
		return false
	}
	age := c.now().Sub(time.Unix(ts, 0))
	return age >= -time.Minute && age <= c.ttl
}

func (c *ConfirmationCodes) makeAt(s Subject, ts int64) string {
	lastLogin := ""
	if s.LastLogin != nil {
		// seconds only, the store does not keep nanoseconds
		lastLogin = strconv.FormatInt(s.LastLogin.UTC().Unix(), 10)
	}
	mac := hmac.New(sha256.New, c.key)
	fmt.Fprintf(mac, "%s|%s|%s|%d", s.ID, s.Email, lastLogin, ts)
	return strconv.FormatInt(ts, 36) + "-" + hex.EncodeToString(mac.Sum(nil))
}
