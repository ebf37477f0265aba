package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/server/session"
)

// csrfSaltKey holds the random per-session salt the tokens are derived
// from. It is kept across session id regeneration so forms rendered before
// a login stay valid.
const csrfSaltKey = "_csrf.salt"

const csrfSaltBytes = 16

// Form intentions.
const (
	IntentionAuthenticate = "authenticate"
	IntentionRegister     = "register"
	IntentionUser         = "user"
	IntentionPassword     = "password"
	IntentionEvent        = "event"
	IntentionPaper        = "paper"
)

// CSRFManager issues and checks anti-forgery tokens. A token is an HMAC of
// the intention keyed by the server secret and the session salt, so each
// (session, intention) pair gets its own value.
type CSRFManager struct {
	secret []byte
}

func NewCSRFManager(secret []byte) *CSRFManager {
	return &CSRFManager{secret: secret}
}

// Token returns the token for intention, creating the session salt on
// first use.
func (m *CSRFManager) Token(sess *session.Session, intention string) (string, error) {
	salt, ok := sess.Get(csrfSaltKey)
	if !ok {
		var err error
		salt, err = common.MakeRandHexString(csrfSaltBytes)
		if err != nil {
			return "", err
		}
		sess.Set(csrfSaltKey, salt)
	}
	return m.compute(salt, intention), nil
}

// Valid reports whether token was issued for intention in sess. A session
// that never received a token has nothing to match.
func (m *CSRFManager) Valid(sess *session.Session, intention, token string) bool {
	salt, ok := sess.Get(csrfSaltKey)
	if !ok || token == "" {
		return false
	}
	expected := m.compute(salt, intention)
	return hmac.Equal([]byte(expected), []byte(token))
}

func (m *CSRFManager) compute(salt, intention string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(salt))
	mac.Write([]byte{0})
	mac.Write([]byte(intention))
	return hex.EncodeToString(mac.Sum(nil))
}
