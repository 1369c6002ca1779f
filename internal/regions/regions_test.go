package regions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateOf(t *testing.T) {
	cases := []struct {
		name string
		want string
		ok   bool
	}{
		{"ABC Distribuidora (SP)", "SP", true},
		{"Comgás (SP)", "SP", true},
		{"Bahiagás (BA)", "BA", true},
		{"Bahiagás (BA) ", "", false},
		{"ABC Distribuidora", "", false},
		{"ABC (SP) Distribuidora", "", false},
		{"Gás Local (sp)", "", false},
		{"Gás Local (SPX)", "", false},
		{"TOTAL DISTRIBUIDORAS SEM O SEGMENTO TERMELÉTRICO", "", false},
	}
	for _, tc := range cases {
		got, ok := StateOf(tc.name)
		require.Equal(t, tc.ok, ok, tc.name)
		require.Equal(t, tc.want, got, tc.name)
	}
}

func TestDefaultLookup_RegionOf(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)

	r, ok := l.RegionOf("SP")
	require.True(t, ok)
	require.Equal(t, Sudeste, r)

	_, ok = l.RegionOf("ZZ")
	require.False(t, ok)

	r, uf, ok := l.RegionOfDistributor("Gasmig (MG)")
	require.True(t, ok)
	require.Equal(t, "MG", uf)
	require.Equal(t, Sudeste, r)
}

func TestDefaultLookup_PartitionsStates(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)

	states := l.States()
	require.Len(t, states, 26)

	seen := map[string]Region{}
	for _, r := range l.Regions() {
		for _, uf := range l.StatesIn(r) {
			_, dup := seen[uf]
			require.False(t, dup, uf)
			seen[uf] = r
		}
	}
	require.Len(t, seen, len(states))
	require.Equal(t, Order, l.Regions())
}

func TestDefaultLookup_Codes(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)

	code, ok := l.StateCode("SP")
	require.True(t, ok)
	require.Equal(t, "35", code)

	code, ok = l.RegionCode(Nordeste)
	require.True(t, ok)
	require.Equal(t, "2", code)
}

func TestLoad_RejectsOverlap(t *testing.T) {
	doc := []byte(`
regions:
  - {name: Norte, code: "1", states: [AM]}
  - {name: Sul, code: "4", states: [AM]}
  - {name: Sudeste, code: "3", states: []}
  - {name: Nordeste, code: "2", states: []}
  - {name: Centro-Oeste, code: "5", states: []}
states:
  - {uf: AM, code: "13"}
`)
	_, err := Load(doc)
	require.ErrorIs(t, err, ErrInvalidLookup)
}

func TestLoad_RejectsUnassignedState(t *testing.T) {
	doc := []byte(`
regions:
  - {name: Norte, code: "1", states: [AM]}
  - {name: Sul, code: "4", states: []}
  - {name: Sudeste, code: "3", states: []}
  - {name: Nordeste, code: "2", states: []}
  - {name: Centro-Oeste, code: "5", states: []}
states:
  - {uf: AM, code: "13"}
  - {uf: PA, code: "15"}
`)
	_, err := Load(doc)
	require.ErrorIs(t, err, ErrInvalidLookup)
}

func TestParseRegion(t *testing.T) {
	r, ok := ParseRegion("centro-oeste")
	require.True(t, ok)
	require.Equal(t, CentroOeste, r)

	_, ok = ParseRegion("Atlantis")
	require.False(t, ok)
}
