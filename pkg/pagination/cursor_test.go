package pagination

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor_RoundTrip(t *testing.T) {
	c := Cursor{M: "distributor", E: HashEntities([]string{"D1 (SP)"}), Y0: 2008, Y1: 2023, Off: 120, Ps: 120, Dv: 42}
	tok, err := EncodeCursor(c)
	require.NoError(t, err)
	require.False(t, strings.ContainsAny(tok, "+/="))

	out, err := DecodeCursor(tok)
	require.NoError(t, err)
	require.Equal(t, 1, out.V)
	require.Equal(t, c.E, out.E)
	require.Equal(t, 120, out.Off)
	require.NoError(t, out.Matches("distributor", c.E, 2008, 2023, 42))
}

func TestCursor_MatchesRejectsDrift(t *testing.T) {
	c := Cursor{V: 1, M: "region", E: "abc", Y0: 2010, Y1: 2012, Ps: 10, Dv: 1}
	require.ErrorIs(t, c.Matches("distributor", "abc", 2010, 2012, 1), ErrInvalidCursor)
	require.ErrorIs(t, c.Matches("region", "xyz", 2010, 2012, 1), ErrInvalidCursor)
	require.ErrorIs(t, c.Matches("region", "abc", 2010, 2013, 1), ErrInvalidCursor)
	require.ErrorIs(t, c.Matches("region", "abc", 2010, 2012, 2), ErrInvalidCursor)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	cases := []string{
		"",
		"!!!",
		base64.RawURLEncoding.EncodeToString([]byte("not-json")),
		mustB64(`{"v":1}`),
		mustB64(`{"v":1,"m":"","e":"h","y0":1,"y1":2,"off":0,"ps":10}`),
		mustB64(`{"v":1,"m":"region","e":"","y0":1,"y1":2,"off":0,"ps":10}`),
		mustB64(`{"v":1,"m":"region","e":"h","y0":3,"y1":2,"off":0,"ps":10}`),
		mustB64(`{"v":1,"m":"region","e":"h","y0":1,"y1":2,"off":-1,"ps":10}`),
		mustB64(`{"v":1,"m":"region","e":"h","y0":1,"y1":2,"off":0,"ps":0}`),
	}
	for i, tok := range cases {
		_, err := DecodeCursor(tok)
		require.ErrorIs(t, err, ErrInvalidCursor, "case %d", i)
	}
}

func TestHashEntities_OrderSensitive(t *testing.T) {
	a := HashEntities([]string{"x", "y"})
	require.Len(t, a, 16)
	require.NotEqual(t, a, HashEntities([]string{"y", "x"}))
	require.NotEqual(t, HashEntities([]string{"xy"}), HashEntities([]string{"x", "y"}))
}

func FuzzDecodeCursor(f *testing.F) {
	seeds := []string{
		"", "abc", mustB64(`{"v":1}`), mustB64(`{"m":"x"}`),
		mustB64(`{"v":1,"m":"region","e":"h","y0":1,"y1":2,"off":0,"ps":1}`),
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, token string) {
		_, _ = DecodeCursor(token)
	})
}

func mustB64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}
