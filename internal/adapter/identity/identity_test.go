package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	id, err := Guest().SignIn("  Dana ")
	require.NoError(t, err)

	token, exp, err := iss.Issue(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	got, err := iss.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, "Dana", got.Username)
	assert.True(t, got.SignedIn())
}

func TestParse_Rejects(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	token, _, err := iss.Issue(Guest())
	require.NoError(t, err)

	_, err = NewIssuer("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(Guest())
	require.NoError(t, err)
	_, err = iss.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignInOut(t *testing.T) {
	g := Guest()
	assert.False(t, g.SignedIn())
	assert.Equal(t, domain.GuestAuthor, g.Author())

	_, err := g.SignIn("   ")
	assert.ErrorIs(t, err, domain.ErrValidationFailure)

	in, err := g.SignIn("Dana")
	require.NoError(t, err)
	assert.Equal(t, "Dana", in.Author())

	out := in.SignOut()
	assert.Equal(t, g.SessionID, out.SessionID)
	assert.False(t, out.SignedIn())
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	id := Identity{SessionID: "s1", Username: "Dana"}
	got, ok := FromContext(WithIdentity(context.Background(), id))
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestCookies(t *testing.T) {
	c := Cookies{Issuer: NewIssuer("secret", time.Hour), Name: "lf_session"}
	id := Identity{SessionID: "s1", Username: "Dana"}

	rec := httptest.NewRecorder()
	require.NoError(t, c.Write(rec, id))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range rec.Result().Cookies() {
		req.AddCookie(ck)
	}
	got, ok := c.Read(req)
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = c.Read(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}
