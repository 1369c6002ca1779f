package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/vinodismyname/gasdash/config"
)

// Palette is the sequential yellow-orange-red ramp used for fills.
var Palette = []string{
	"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c",
	"#fc4e2a", "#e31a1c", "#bd0026", "#800026",
}

// MissingFill is used for features without a value.
const MissingFill = "#d9d9d9"

// StateScale is the fixed threshold scale for the state map.
var StateScale = func() []float64 {
	s := make([]float64, 16)
	for i := range s {
		s[i] = float64(i)
	}
	return s
}()

// Map is a choropleth ready for rendering. When Available is false the
// features are omitted and Reason explains why.
type Map struct {
	Available bool            `json:"available"`
	Reason    string          `json:"reason,omitempty"`
	Key       string          `json:"key,omitempty"`
	Scale     []float64       `json:"scale,omitempty"`
	Colors    []string        `json:"colors,omitempty"`
	Center    [2]float64      `json:"center"`
	Bounds    []float64       `json:"bounds,omitempty"`
	Matched   int             `json:"matched"`
	Features  json.RawMessage `json:"features,omitempty"`
}

// EmptyMap is the degraded state shown when boundaries are unavailable.
func EmptyMap(reason string) Map {
	return Map{
		Reason: reason,
		Center: [2]float64{config.DefaultMapCenterLat, config.DefaultMapCenterLon},
	}
}

// LinearScale splits [0, max(values)] into n equal bins.
func LinearScale(values map[string]float64, n int) []float64 {
	if n < 1 {
		n = 1
	}
	hi := 0.0
	for _, v := range values {
		if !math.IsNaN(v) && v > hi {
			hi = v
		}
	}
	if hi == 0 {
		hi = 1
	}
	scale := make([]float64, n+1)
	for i := range scale {
		scale[i] = hi * float64(i) / float64(n)
	}
	return scale
}

// Choropleth joins values keyed by feature code onto a copy of the
// collection. Each feature gains value, bin and fill properties; the source
// collection is not modified.
func Choropleth(col *Collection, values map[string]float64, scale []float64) (Map, error) {
	if col == nil || col.Features == nil {
		return EmptyMap("boundaries unavailable"), nil
	}
	if len(scale) < 2 {
		return Map{}, fmt.Errorf("geo: scale needs at least two thresholds, got %d", len(scale))
	}
	for i := 1; i < len(scale); i++ {
		if scale[i] <= scale[i-1] {
			return Map{}, fmt.Errorf("geo: scale must be strictly increasing at index %d", i)
		}
	}

	out := &geojson.FeatureCollection{
		BBox:     col.Features.BBox,
		Features: make([]*geojson.Feature, 0, len(col.Features.Features)),
	}
	var bounds *geom.Bounds
	matched := 0
	bins := len(scale) - 1

	for _, f := range col.Features.Features {
		if f == nil {
			continue
		}
		props := make(map[string]any, len(f.Properties)+3)
		for k, v := range f.Properties {
			props[k] = v
		}
		code := PropertyString(f.Properties[col.Key])
		if v, ok := values[code]; ok && !math.IsNaN(v) {
			b := Bin(scale, v)
			props["value"] = v
			props["bin"] = b
			props["fill"] = colorFor(b, bins)
			matched++
		} else {
			props["value"] = nil
			props["fill"] = MissingFill
		}
		out.Features = append(out.Features, &geojson.Feature{
			ID:         f.ID,
			Geometry:   f.Geometry,
			Properties: props,
		})
		if f.Geometry != nil {
			if bounds == nil {
				bounds = geom.NewBounds(f.Geometry.Layout())
			}
			bounds.Extend(f.Geometry)
		}
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return Map{}, fmt.Errorf("geo: encode choropleth: %w", err)
	}

	m := Map{
		Available: true,
		Key:       col.Key,
		Scale:     append([]float64(nil), scale...),
		Colors:    binColors(bins),
		Center:    [2]float64{config.DefaultMapCenterLat, config.DefaultMapCenterLon},
		Matched:   matched,
		Features:  raw,
	}
	if bounds != nil && !bounds.IsEmpty() {
		minX, minY := bounds.Min(0), bounds.Min(1)
		maxX, maxY := bounds.Max(0), bounds.Max(1)
		m.Bounds = []float64{minX, minY, maxX, maxY}
		m.Center = [2]float64{(minY + maxY) / 2, (minX + maxX) / 2}
	}
	return m, nil
}

// Bin returns the index of the threshold interval containing v. Values
// outside the scale are clamped to the first or last bin.
func Bin(scale []float64, v float64) int {
	last := len(scale) - 2
	for i := 0; i <= last; i++ {
		if v < scale[i+1] {
			return i
		}
	}
	return last
}

func colorFor(bin, bins int) string {
	if bins <= 1 {
		return Palette[len(Palette)-1]
	}
	return Palette[bin*(len(Palette)-1)/(bins-1)]
}

func binColors(bins int) []string {
	out := make([]string, bins)
	for i := range out {
		out[i] = colorFor(i, bins)
	}
	return out
}

// PropertyString normalizes a feature property to its string form. Codes
// arrive as strings from some services and as numbers from others.
func PropertyString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
