package auth

import (
	"context"
	"testing"

	"github.com/abswdsmn/conference-organiser/internal/server/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, st session.Store) *session.Session {
	t.Helper()
	s, err := st.New(context.Background())
	require.NoError(t, err)
	return s
}

func TestCSRF_TokenIsStablePerIntention(t *testing.T) {
	m := NewCSRFManager([]byte("secret"))
	s := newSession(t, session.NewMemoryStore(0, nil))

	a1, err := m.Token(s, IntentionAuthenticate)
	require.NoError(t, err)
	a2, err := m.Token(s, IntentionAuthenticate)
	require.NoError(t, err)
	other, err := m.Token(s, IntentionEvent)
	require.NoError(t, err)

	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, other)
	assert.True(t, m.Valid(s, IntentionAuthenticate, a1))
	assert.False(t, m.Valid(s, IntentionEvent, a1))
}

func TestCSRF_DiffersBetweenSessions(t *testing.T) {
	m := NewCSRFManager([]byte("secret"))
	st := session.NewMemoryStore(0, nil)
	s1, s2 := newSession(t, st), newSession(t, st)

	t1, _ := m.Token(s1, IntentionAuthenticate)
	t2, _ := m.Token(s2, IntentionAuthenticate)

	assert.NotEqual(t, t1, t2)
	assert.False(t, m.Valid(s2, IntentionAuthenticate, t1))
}

func TestCSRF_RejectsTamperedAndMissing(t *testing.T) {
	m := NewCSRFManager([]byte("secret"))
	s := newSession(t, session.NewMemoryStore(0, nil))

	assert.False(t, m.Valid(s, IntentionAuthenticate, "anything"), "no token issued yet")

	tok, _ := m.Token(s, IntentionAuthenticate)
	assert.False(t, m.Valid(s, IntentionAuthenticate, ""))
	assert.False(t, m.Valid(s, IntentionAuthenticate, tok[:len(tok)-1]+"0"+"x"))
	assert.False(t, NewCSRFManager([]byte("other")).Valid(s, IntentionAuthenticate, tok))
}

func TestCSRF_SurvivesRegenerate(t *testing.T) {
	ctx := context.Background()
	m := NewCSRFManager([]byte("secret"))
	st := session.NewMemoryStore(0, nil)
	s := newSession(t, st)

	tok, _ := m.Token(s, IntentionUser)
	require.NoError(t, st.Regenerate(ctx, s))

	assert.True(t, m.Valid(s, IntentionUser, tok))
}
