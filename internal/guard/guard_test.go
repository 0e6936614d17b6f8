package guard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type flag bool

func (f flag) Active() bool { return bool(f) }

func TestCheck_Protected(t *testing.T) {
	t.Parallel()

	out := New(flag(false))
	in := New(flag(true))
	for _, p := range []string{"/dashboard", "/upload", "/document/D1", "/analyze-resume/P1",
		"/analyze-company", "/generate-letter", "/generate-letter?letter=L1", "/settings", "/settings/"} {
		require.Equal(t, Decision{Target: Login}, out.Check(p), p)
		require.Equal(t, Decision{Allow: true}, in.Check(p), p)
	}
}

func TestCheck_PublicOnlyInverts(t *testing.T) {
	t.Parallel()

	for _, p := range []string{Login, Signup} {
		require.True(t, New(flag(false)).Check(p).Allow)
		d := New(flag(true)).Check(p)
		require.True(t, d.Redirects())
		require.Equal(t, Landing, d.Target)
	}
}

func TestCheck_RootAndUnknown(t *testing.T) {
	t.Parallel()

	g := New(flag(false))
	require.Equal(t, Landing, g.Check("/").Target)
	require.Equal(t, Landing, g.Check("").Target)
	require.Equal(t, Landing, g.Check("/nope").Target)
	require.Equal(t, Landing, g.Check("/document/").Target)
	require.Equal(t, Landing, g.Check("/document/D1/extra").Target)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	require.Equal(t, Login, New(flag(false)).Resolve("/"))
	require.Equal(t, Landing, New(flag(true)).Resolve("/"))
	require.Equal(t, Landing, New(flag(true)).Resolve(Signup))
	require.Equal(t, "/upload", New(flag(true)).Resolve("/upload"))
}
