package dashboard

import (
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vinodismyname/gasdash/internal/demand"
	"github.com/vinodismyname/gasdash/internal/errcode"
	"github.com/vinodismyname/gasdash/internal/regions"
	"github.com/vinodismyname/gasdash/internal/telemetry"
	"github.com/vinodismyname/gasdash/internal/view"
	"github.com/vinodismyname/gasdash/pkg/mcperr"
	"github.com/vinodismyname/gasdash/pkg/validation"
	"github.com/vinodismyname/gasdash/pkg/version"
)

type selectionQuery struct {
	Mode     string   `form:"mode" validate:"omitempty,mode"`
	Entities []string `form:"entity" validate:"omitempty,max=20,dive,entity"`
	MinYear  int      `form:"min" validate:"omitempty,gte=1900,lte=2100"`
	MaxYear  int      `form:"max" validate:"omitempty,gte=1900,lte=2100"`
}

type errorResponse struct {
	Code    mcperr.Code `json:"code"`
	Message string      `json:"message"`
}

func fail(c *gin.Context, code mcperr.Code, msg string) {
	c.AbortWithStatusJSON(mcperr.HTTPStatus(code), errorResponse{Code: code, Message: mcperr.Text(code, msg)})
}

func failErr(c *gin.Context, err error) {
	fail(c, errcode.Of(err), err.Error())
}

// failText renders a "CODE: message" string from pkg/validation.
func failText(c *gin.Context, text string) {
	code, msg, _ := strings.Cut(text, ":")
	fail(c, mcperr.Code(strings.TrimSpace(code)), strings.TrimSpace(msg))
}

// bind parses and validates the common selection query, resolving omitted
// years to the data's bounds.
func (s *Server) bind(c *gin.Context) (demand.Mode, demand.YearRange, []string, bool) {
	var q selectionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, mcperr.Validation, "malformed query: "+err.Error())
		return "", demand.YearRange{}, nil, false
	}
	if msg := validation.ValidateStruct(q); msg != "" {
		failText(c, msg)
		return "", demand.YearRange{}, nil, false
	}
	mode, _ := demand.ParseMode(q.Mode)
	yr := s.views.Service().Resolve(q.MinYear, q.MaxYear)
	if err := yr.Validate(); err != nil {
		fail(c, mcperr.Validation, err.Error())
		return "", demand.YearRange{}, nil, false
	}
	return mode, yr, q.Entities, true
}

type statusResponse struct {
	Version      string                `json:"version"`
	MinYear      int                   `json:"minYear"`
	MaxYear      int                   `json:"maxYear"`
	Months       int                   `json:"months"`
	Distributors int                   `json:"distributors"`
	Calls        []telemetry.ToolStats `json:"calls,omitempty"`
}

// GET /api/status
func (s *Server) getStatus(c *gin.Context) {
	svc := s.views.Service()
	b := svc.Bounds()
	resp := statusResponse{
		Version:      version.Version(),
		MinYear:      b.Min,
		MaxYear:      b.Max,
		Months:       svc.Table().Len(),
		Distributors: len(svc.Table().Distributors),
	}
	if s.opts.Counters != nil {
		resp.Calls = s.opts.Counters.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/years
func (s *Server) getYears(c *gin.Context) {
	svc := s.views.Service()
	b := svc.Bounds()
	c.JSON(http.StatusOK, gin.H{"years": svc.Years(), "minYear": b.Min, "maxYear": b.Max})
}

// GET /api/entities?mode=
func (s *Server) getEntities(c *gin.Context) {
	mode, _, _, ok := s.bind(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode, "entities": s.views.Service().Entities(mode)})
}

// GET /api/lookup?name=
func (s *Server) getLookup(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		fail(c, mcperr.Validation, "name is required")
		return
	}
	svc := s.views.Service()
	_, inDataset := svc.Table().Column(name)
	resp := gin.H{"name": name, "mapped": false, "inDataset": inDataset}
	lookup := svc.Lookup()
	if uf, ok := regions.StateOf(name); ok {
		resp["state"] = uf
		if code, ok := lookup.StateCode(uf); ok {
			resp["stateCode"] = code
		}
		if r, ok := lookup.RegionOf(uf); ok {
			resp["region"] = r
			resp["mapped"] = true
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/percentuals/{distributors|regions}?min=&max=
func (s *Server) getPercentuals(c *gin.Context) {
	var mode demand.Mode
	switch c.Param("mode") {
	case "distributors":
		mode = demand.ModeDistributor
	case "regions":
		mode = demand.ModeRegion
	default:
		fail(c, mcperr.Validation, "use /api/percentuals/distributors or /api/percentuals/regions")
		return
	}
	_, yr, _, ok := s.bind(c)
	if !ok {
		return
	}
	pt, err := s.views.Service().Percentuals(c.Request.Context(), mode, yr)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, pt)
}

type seriesJSON struct {
	Name   string     `json:"name"`
	Months []string   `json:"months"`
	Values []*float64 `json:"values"`
}

// GET /api/series?mode=&entity=&entity=&min=&max=
func (s *Server) getSeries(c *gin.Context) {
	mode, yr, names, ok := s.bind(c)
	if !ok {
		return
	}
	if len(names) == 0 {
		fail(c, mcperr.Validation, "at least one entity is required")
		return
	}
	series, err := s.views.Service().Series(mode, yr, names)
	if err != nil {
		failErr(c, err)
		return
	}
	out := make([]seriesJSON, len(series))
	for i, sr := range series {
		out[i] = seriesJSON{Name: sr.Name, Months: months(sr.Dates), Values: nullable(sr.Values)}
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode, "range": yr, "series": out})
}

func months(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01")
	}
	return out
}

// nullable maps missing observations to JSON null.
func nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			out[i] = &v
		}
	}
	return out
}

// GET /api/map/{states|regions}?min=&max=
func (s *Server) getMap(c *gin.Context) {
	var mode demand.Mode
	switch c.Param("kind") {
	case "states":
		mode = demand.ModeDistributor
	case "regions":
		mode = demand.ModeRegion
	default:
		fail(c, mcperr.Validation, "use /api/map/states or /api/map/regions")
		return
	}
	_, yr, _, ok := s.bind(c)
	if !ok {
		return
	}
	mv, err := s.views.Map(c.Request.Context(), mode, yr)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, mv)
}

// GET /api/dashboard?mode=&entity=&min=&max=
// Chart images are not inlined; the response links the PNG routes.
func (s *Server) getDashboard(c *gin.Context) {
	mode, yr, names, ok := s.bind(c)
	if !ok {
		return
	}
	if len(names) == 0 {
		mv, err := s.views.Map(c.Request.Context(), mode, yr)
		if err != nil {
			failErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"kind": "map", "map": mv})
		return
	}
	q := c.Request.URL.RawQuery
	c.JSON(http.StatusOK, gin.H{
		"kind":     "charts",
		"mode":     mode,
		"range":    yr,
		"selected": names,
		"line":     "/charts/line.png?" + q,
		"bars":     "/charts/bars.png?" + q,
	})
}

func (s *Server) chart(c *gin.Context, which view.Chart) {
	mode, yr, names, ok := s.bind(c)
	if !ok {
		return
	}
	if len(names) == 0 {
		fail(c, mcperr.Validation, "at least one entity is required")
		return
	}
	png, err := s.views.Chart(c.Request.Context(), mode, yr, names, which)
	if err != nil {
		failErr(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// GET /charts/line.png
func (s *Server) getLineChart(c *gin.Context) {
	s.chart(c, view.ChartLine)
}

// GET /charts/bars.png
func (s *Server) getBarsChart(c *gin.Context) {
	s.chart(c, view.ChartBars)
}

// GET /logo
func (s *Server) getLogo(c *gin.Context) {
	if s.opts.LogoPath == "" {
		c.Status(http.StatusNotFound)
		return
	}
	if _, err := os.Stat(s.opts.LogoPath); err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.File(s.opts.LogoPath)
}
