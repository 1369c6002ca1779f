// Package geo retrieves state and region boundary collections and joins
// them with demand values for choropleth rendering.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/vinodismyname/gasdash/config"
	"github.com/vinodismyname/gasdash/internal/memo"
	"golang.org/x/sync/errgroup"
)

// Kind selects a boundary collection.
type Kind string

const (
	KindStates  Kind = "states"
	KindRegions Kind = "regions"
)

const maxBodyBytes = 128 << 20

// ErrRemoteFetch indicates a boundary source that could not be retrieved.
var ErrRemoteFetch = errors.New("geo: remote fetch failed")

// RemoteFetchError carries the failing URL and, when a response arrived,
// its HTTP status.
type RemoteFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RemoteFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("geo: GET %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("geo: GET %s: %v", e.URL, e.Err)
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }

func (e *RemoteFetchError) Is(target error) bool { return target == ErrRemoteFetch }

// Collection is a boundary feature collection whose features are keyed by
// the Key property.
type Collection struct {
	Kind     Kind
	Key      string
	Features *geojson.FeatureCollection
}

// Fetcher downloads boundary collections. Successful downloads are kept for
// the life of the process; failures are reported and not retained.
type Fetcher struct {
	client     *http.Client
	statesURL  string
	regionsURL string
	userAgent  string
	cache      *memo.Cache[Kind, *Collection]
}

// NewFetcher constructs a Fetcher. A nil client gets a default timeout.
func NewFetcher(client *http.Client, statesURL, regionsURL, userAgent string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: config.DefaultFetchTimeout}
	}
	if statesURL == "" {
		statesURL = config.DefaultStatesURL
	}
	if regionsURL == "" {
		regionsURL = config.DefaultRegionsURL
	}
	return &Fetcher{
		client:     client,
		statesURL:  statesURL,
		regionsURL: regionsURL,
		userAgent:  userAgent,
		cache:      memo.New[Kind, *Collection](),
	}
}

// FetchStateBoundaries returns state polygons keyed by GEOCODIGO.
func (f *Fetcher) FetchStateBoundaries(ctx context.Context) (*Collection, error) {
	return f.Fetch(ctx, KindStates)
}

// FetchRegionBoundaries returns region polygons keyed by codarea.
func (f *Fetcher) FetchRegionBoundaries(ctx context.Context) (*Collection, error) {
	return f.Fetch(ctx, KindRegions)
}

// Fetch returns the collection for kind.
func (f *Fetcher) Fetch(ctx context.Context, kind Kind) (*Collection, error) {
	var url, key string
	switch kind {
	case KindStates:
		url, key = f.statesURL, config.StateFeatureKey
	case KindRegions:
		url, key = f.regionsURL, config.RegionFeatureKey
	default:
		return nil, fmt.Errorf("geo: unknown boundary kind %q", kind)
	}
	return f.cache.Get(ctx, kind, func(ctx context.Context) (*Collection, error) {
		fc, err := f.get(ctx, url)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("url", url).Msg("boundary fetch failed")
			return nil, err
		}
		return &Collection{Kind: kind, Key: key, Features: fc}, nil
	})
}

// Prefetch warms both collections concurrently.
func (f *Fetcher) Prefetch(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range []Kind{KindStates, KindRegions} {
		g.Go(func() error {
			_, err := f.Fetch(gctx, kind)
			return err
		})
	}
	return g.Wait()
}

func (f *Fetcher) get(ctx context.Context, url string) (*geojson.FeatureCollection, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &RemoteFetchError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/geo+json, application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &RemoteFetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &RemoteFetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &RemoteFetchError{URL: url, Err: err}
	}
	fc, err := decodeCollection(body)
	if err != nil {
		return nil, &RemoteFetchError{URL: url, Err: fmt.Errorf("decode geojson: %w", err)}
	}

	zerolog.Ctx(ctx).Info().
		Str("url", url).
		Int("features", len(fc.Features)).
		Dur("duration", time.Since(start)).
		Msg("boundary collection fetched")
	return fc, nil
}

type rawFeature struct {
	ID         any             `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

// decodeCollection accepts string or numeric feature ids, which the
// boundary services use interchangeably.
func decodeCollection(body []byte) (*geojson.FeatureCollection, error) {
	var raw rawCollection
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if raw.Type != "FeatureCollection" {
		return nil, fmt.Errorf("expected FeatureCollection, got %q", raw.Type)
	}
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(raw.Features))}
	for i, rf := range raw.Features {
		f := &geojson.Feature{ID: PropertyString(rf.ID), Properties: rf.Properties}
		if len(rf.Geometry) > 0 && string(rf.Geometry) != "null" {
			var g geom.T
			if err := geojson.Unmarshal(rf.Geometry, &g); err != nil {
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
			f.Geometry = g
		}
		fc.Features = append(fc.Features, f)
	}
	return fc, nil
}
