// Package regions maps distributor names to Brazilian states and states to
// the five macro-regions. The lookup tables are immutable once loaded.
package regions

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/vinodismyname/gasdash/config"
	"gopkg.in/yaml.v2"
)

// Region is one of the five fixed Brazilian macro-regions.
type Region string

const (
	Norte       Region = "Norte"
	Sul         Region = "Sul"
	Sudeste     Region = "Sudeste"
	Nordeste    Region = "Nordeste"
	CentroOeste Region = "Centro-Oeste"
)

// Order is the fixed declaration order used for every region-keyed output.
var Order = []Region{Norte, Sul, Sudeste, Nordeste, CentroOeste}

// ErrInvalidLookup indicates lookup tables that do not partition the state list.
var ErrInvalidLookup = errors.New("regions: invalid lookup tables")

var trailingState = regexp.MustCompile(`\((\w+)\)$`)

// StateOf extracts the two-letter state code from a trailing "(UF)" in a
// distributor display name. Names without a trailing parenthetical, or whose
// parenthetical is not two upper-case letters, are unmapped. The
// parenthetical must end the string; the loader trims cell labels.
func StateOf(name string) (string, bool) {
	m := trailingState.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	uf := m[1]
	if len(uf) != 2 || strings.ToUpper(uf) != uf || !isLetters(uf) {
		return "", false
	}
	return uf, true
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

type document struct {
	Regions []struct {
		Name   string   `yaml:"name"`
		Code   string   `yaml:"code"`
		States []string `yaml:"states"`
	} `yaml:"regions"`
	States []struct {
		UF   string `yaml:"uf"`
		Code string `yaml:"code"`
	} `yaml:"states"`
}

// Lookup resolves states to regions and both to IBGE boundary codes.
type Lookup struct {
	states      []string
	regionOf    map[string]Region
	stateCode   map[string]string
	regionCode  map[Region]string
	regionState map[Region][]string
}

// Load parses YAML lookup tables and validates that the region sets
// partition the declared state list.
func Load(data []byte) (*Lookup, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("regions: decode yaml: %w", err)
	}
	if len(doc.Regions) != len(Order) {
		return nil, fmt.Errorf("%w: want %d regions, got %d", ErrInvalidLookup, len(Order), len(doc.Regions))
	}

	l := &Lookup{
		regionOf:    map[string]Region{},
		stateCode:   map[string]string{},
		regionCode:  map[Region]string{},
		regionState: map[Region][]string{},
	}
	for _, s := range doc.States {
		uf := strings.TrimSpace(s.UF)
		if _, dup := l.stateCode[uf]; dup {
			return nil, fmt.Errorf("%w: state %s listed twice", ErrInvalidLookup, uf)
		}
		l.states = append(l.states, uf)
		l.stateCode[uf] = strings.TrimSpace(s.Code)
	}

	for i, r := range doc.Regions {
		region := Region(strings.TrimSpace(r.Name))
		if region != Order[i] {
			return nil, fmt.Errorf("%w: region %d is %q, want %q", ErrInvalidLookup, i, region, Order[i])
		}
		l.regionCode[region] = strings.TrimSpace(r.Code)
		for _, uf := range r.States {
			uf = strings.TrimSpace(uf)
			if _, ok := l.stateCode[uf]; !ok {
				return nil, fmt.Errorf("%w: region %s references unknown state %s", ErrInvalidLookup, region, uf)
			}
			if prev, dup := l.regionOf[uf]; dup {
				return nil, fmt.Errorf("%w: state %s in both %s and %s", ErrInvalidLookup, uf, prev, region)
			}
			l.regionOf[uf] = region
			l.regionState[region] = append(l.regionState[region], uf)
		}
	}
	for _, uf := range l.states {
		if _, ok := l.regionOf[uf]; !ok {
			return nil, fmt.Errorf("%w: state %s has no region", ErrInvalidLookup, uf)
		}
	}
	return l, nil
}

var (
	defaultOnce   sync.Once
	defaultLookup *Lookup
	defaultErr    error
)

// Default returns the lookup built from the embedded tables.
func Default() (*Lookup, error) {
	defaultOnce.Do(func() {
		defaultLookup, defaultErr = Load(config.RegionsYAML)
	})
	return defaultLookup, defaultErr
}

// RegionOf returns the region a state code belongs to.
func (l *Lookup) RegionOf(uf string) (Region, bool) {
	r, ok := l.regionOf[uf]
	return r, ok
}

// RegionOfDistributor resolves a distributor display name to its region and state.
func (l *Lookup) RegionOfDistributor(name string) (Region, string, bool) {
	uf, ok := StateOf(name)
	if !ok {
		return "", "", false
	}
	r, ok := l.RegionOf(uf)
	if !ok {
		return "", uf, false
	}
	return r, uf, true
}

// Regions returns the regions in declaration order.
func (l *Lookup) Regions() []Region {
	out := make([]Region, len(Order))
	copy(out, Order)
	return out
}

// States returns the state codes in table order.
func (l *Lookup) States() []string {
	out := make([]string, len(l.states))
	copy(out, l.states)
	return out
}

// StatesIn returns the states of a region.
func (l *Lookup) StatesIn(r Region) []string {
	src := l.regionState[r]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// StateCode returns the IBGE code of a state (GEOCODIGO).
func (l *Lookup) StateCode(uf string) (string, bool) {
	c, ok := l.stateCode[uf]
	return c, ok
}

// RegionCode returns the IBGE code of a region (codarea).
func (l *Lookup) RegionCode(r Region) (string, bool) {
	c, ok := l.regionCode[r]
	return c, ok
}

// ParseRegion matches a region name case-insensitively.
func ParseRegion(name string) (Region, bool) {
	for _, r := range Order {
		if strings.EqualFold(string(r), strings.TrimSpace(name)) {
			return r, true
		}
	}
	return "", false
}
