package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abswdsmn/conference-organiser/internal/server/models"
)

// identityVersion prefixes every encoded identity. Bump it when the
// payload changes; older values are then rejected and the visitor has to
// log in again.
const identityVersion = "v1"

var (
	ErrIdentityVersion   = errors.New("unsupported identity version")
	ErrIdentityMalformed = errors.New("malformed identity")
)

// Identity is what the session remembers about the logged-in user. The
// password hash lets the firewall notice a password change and end other
// sessions of that user.
type Identity struct {
	UserID       string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

func IdentityOf(u *models.User) Identity {
	return Identity{UserID: u.ID, Username: u.Username, PasswordHash: u.Password}
}

// EncodeIdentity renders id as "v1:<base64url(json)>".
func EncodeIdentity(id Identity) (string, error) {
	b, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	return identityVersion + ":" + base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeIdentity(s string) (Identity, error) {
	version, payload, ok := strings.Cut(s, ":")
	if !ok {
		return Identity{}, ErrIdentityMalformed
	}
	if version != identityVersion {
		return Identity{}, fmt.Errorf("%w: %q", ErrIdentityVersion, version)
	}

	b, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrIdentityMalformed, err)
	}

	var id Identity
	if err := json.Unmarshal(b, &id); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrIdentityMalformed, err)
	}
	if id.UserID == "" {
		return Identity{}, fmt.Errorf("%w: empty user id", ErrIdentityMalformed)
	}
	return id, nil
}
