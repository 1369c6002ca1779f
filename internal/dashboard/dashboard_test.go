package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/gasdash/internal/dataset"
	"github.com/vinodismyname/gasdash/internal/demand"
	"github.com/vinodismyname/gasdash/internal/regions"
	"github.com/vinodismyname/gasdash/internal/runtime"
	"github.com/vinodismyname/gasdash/internal/telemetry"
	"github.com/vinodismyname/gasdash/internal/view"
	"github.com/vinodismyname/gasdash/pkg/mcperr"
)

func newServer(t *testing.T, opts Options) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var dates []time.Time
	var d1, d2, nat []float64
	for y := 2020; y <= 2021; y++ {
		for m := time.January; m <= time.December; m++ {
			dates = append(dates, time.Date(y, m, 1, 0, 0, 0, 0, time.UTC))
			d1 = append(d1, 10)
			d2 = append(d2, 5)
			nat = append(nat, 15)
		}
	}
	table, err := dataset.NewTable(dates, []string{"D1 (SP)", "D2 (BA)"}, [][]float64{d1, d2}, nat)
	require.NoError(t, err)
	lookup, err := regions.Default()
	require.NoError(t, err)
	svc := demand.NewService(dataset.Snapshot{Table: table, Version: 1}, lookup)
	opts.Debug = true
	opts.Logger = zerolog.Nop()
	return New(view.NewBuilder(svc, nil, true), opts)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestStatusAndYears(t *testing.T) {
	counters := telemetry.NewCounters()
	s := newServer(t, Options{Counters: counters})

	rec := get(t, s, "/api/years")
	require.Equal(t, http.StatusOK, rec.Code)
	years := decode[struct {
		Years   []int `json:"years"`
		MinYear int   `json:"minYear"`
		MaxYear int   `json:"maxYear"`
	}](t, rec)
	require.Equal(t, []int{2020, 2021}, years.Years)
	require.Equal(t, 2020, years.MinYear)
	require.Equal(t, 2021, years.MaxYear)

	rec = get(t, s, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[statusResponse](t, rec)
	require.Equal(t, 24, st.Months)
	require.Equal(t, 2, st.Distributors)
	require.NotEmpty(t, st.Calls)
	require.Equal(t, "GET /api/years", st.Calls[0].Tool)
}

func TestEntities(t *testing.T) {
	s := newServer(t, Options{})

	rec := get(t, s, "/api/entities")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[struct {
		Mode     string   `json:"mode"`
		Entities []string `json:"entities"`
	}](t, rec)
	require.Equal(t, "distributor", out.Mode)
	require.Equal(t, []string{"D1 (SP)", "D2 (BA)"}, out.Entities)

	rec = get(t, s, "/api/entities?mode=regiao")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Nordeste")

	rec = get(t, s, "/api/entities?mode=planet")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	e := decode[errorResponse](t, rec)
	require.Equal(t, mcperr.Validation, e.Code)
}

func TestLookup(t *testing.T) {
	s := newServer(t, Options{})

	rec := get(t, s, "/api/lookup?name=D2+(BA)")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[map[string]any](t, rec)
	require.Equal(t, "BA", out["state"])
	require.Equal(t, "Nordeste", out["region"])
	require.Equal(t, true, out["mapped"])
	require.Equal(t, true, out["inDataset"])
	require.Equal(t, "29", out["stateCode"])

	rec = get(t, s, "/api/lookup?name=Unknown")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, decode[map[string]any](t, rec)["mapped"])

	rec = get(t, s, "/api/lookup")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPercentuals(t *testing.T) {
	s := newServer(t, Options{})

	rec := get(t, s, "/api/percentuals/distributors?min=2020&max=2021")
	require.Equal(t, http.StatusOK, rec.Code)
	pt := decode[demand.PercentualTable](t, rec)
	share, ok := pt.Share("D1 (SP)")
	require.True(t, ok)
	require.InDelta(t, 66.667, share, 0.01)

	rec = get(t, s, "/api/percentuals/regions")
	require.Equal(t, http.StatusOK, rec.Code)
	pt = decode[demand.PercentualTable](t, rec)
	share, ok = pt.Share("Nordeste")
	require.True(t, ok)
	require.InDelta(t, 33.333, share, 0.01)
	require.Equal(t, demand.YearRange{Min: 2020, Max: 2021}, pt.Range)

	rec = get(t, s, "/api/percentuals/states")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorsCarryCatalogStatus(t *testing.T) {
	s := newServer(t, Options{})

	cases := []struct {
		target string
		status int
		code   mcperr.Code
	}{
		{"/api/percentuals/distributors?min=2030&max=2031", http.StatusUnprocessableEntity, mcperr.EmptyRange},
		{"/api/percentuals/distributors?min=2021&max=2020", http.StatusBadRequest, mcperr.Validation},
		{"/api/percentuals/distributors?min=1800", http.StatusBadRequest, mcperr.Validation},
		{"/api/percentuals/distributors?min=abc", http.StatusBadRequest, mcperr.Validation},
		{"/api/series?entity=Nope", http.StatusNotFound, mcperr.UnknownEntity},
		{"/api/series", http.StatusBadRequest, mcperr.Validation},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			rec := get(t, s, tc.target)
			require.Equal(t, tc.status, rec.Code)
			e := decode[errorResponse](t, rec)
			require.Equal(t, tc.code, e.Code)
			require.Contains(t, e.Message, string(tc.code)+":")
		})
	}
}

func TestSeries(t *testing.T) {
	s := newServer(t, Options{})

	rec := get(t, s, "/api/series?entity=D1+(SP)&entity=D2+(BA)&min=2021&max=2021")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[struct {
		Series []seriesJSON `json:"series"`
	}](t, rec)
	require.Len(t, out.Series, 2)
	require.Len(t, out.Series[0].Months, 12)
	require.Equal(t, "2021-01", out.Series[0].Months[0])
	require.Equal(t, 10.0, *out.Series[0].Values[0])
	require.Equal(t, 5.0, *out.Series[1].Values[11])

	rec = get(t, s, "/api/series?mode=region&entity=sudeste")
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode[struct {
		Series []seriesJSON `json:"series"`
	}](t, rec)
	require.Equal(t, "Sudeste", out.Series[0].Name)
	require.Len(t, out.Series[0].Months, 24)
}

func TestNullableKeepsGaps(t *testing.T) {
	out := nullable([]float64{1, math.NaN(), 3})
	require.Equal(t, 1.0, *out[0])
	require.Nil(t, out[1])
	require.Equal(t, 3.0, *out[2])
}

func TestMapDegradesOffline(t *testing.T) {
	s := newServer(t, Options{})

	rec := get(t, s, "/api/map/states?min=2020&max=2020")
	require.Equal(t, http.StatusOK, rec.Code)
	mv := decode[view.MapView](t, rec)
	require.False(t, mv.Map.Available)
	require.NotEmpty(t, mv.Map.Reason)
	require.Contains(t, mv.Title, "por estado")
	require.NotEmpty(t, mv.Values)

	rec = get(t, s, "/api/map/regions")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, decode[view.MapView](t, rec).Title, "por região")

	rec = get(t, s, "/api/map/cities")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardSelection(t *testing.T) {
	s := newServer(t, Options{})

	rec := get(t, s, "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "map", decode[map[string]any](t, rec)["kind"])

	rec = get(t, s, "/api/dashboard?entity=D1+(SP)")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[map[string]any](t, rec)
	require.Equal(t, "charts", out["kind"])
	require.Contains(t, out["line"], "/charts/line.png?")
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestChartImages(t *testing.T) {
	s := newServer(t, Options{})

	for _, path := range []string{"/charts/line.png", "/charts/bars.png"} {
		rec := get(t, s, path+"?entity=D1+(SP)&min=2020&max=2021")
		require.Equal(t, http.StatusOK, rec.Code, path)
		require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		require.True(t, bytes.HasPrefix(rec.Body.Bytes(), pngMagic), path)
	}

	rec := get(t, s, "/charts/line.png")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogo(t *testing.T) {
	rec := get(t, newServer(t, Options{}), "/logo")
	require.Equal(t, http.StatusNotFound, rec.Code)

	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(path, pngMagic, 0o600))
	rec = get(t, newServer(t, Options{LogoPath: path}), "/logo")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, pngMagic, rec.Body.Bytes())
}

func TestLimiterRejectsWhenSaturated(t *testing.T) {
	limits := runtime.NewLimits(1, 1)
	limits.AcquireRequestTimeout = 10 * time.Millisecond
	ctrl := runtime.NewController(limits)
	require.NoError(t, ctrl.AcquireRequest(context.Background()))
	defer ctrl.ReleaseRequest()

	rec := get(t, newServer(t, Options{Controller: ctrl}), "/api/years")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, mcperr.BusyResource, decode[errorResponse](t, rec).Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newServer(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, "127.0.0.1:0", time.Second) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
