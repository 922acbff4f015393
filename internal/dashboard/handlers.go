package dashboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KaramelBytes/abeval-cli/internal/experiment"
	"github.com/KaramelBytes/abeval-cli/internal/logging"
	"github.com/KaramelBytes/abeval-cli/internal/report"
)

type bounds struct {
	MinUsers, MaxUsers   int
	MinBase, MaxBase     float64
	MinUplift, MaxUplift float64
}

var simBounds = bounds{
	MinUsers: experiment.MinSimUsers, MaxUsers: experiment.MaxSimUsers,
	MinBase: experiment.MinSimBaseRate, MaxBase: experiment.MaxSimBaseRate,
	MinUplift: experiment.MinSimUplift, MaxUplift: experiment.MaxSimUplift,
}

type pageData struct {
	Title          string
	Header         []string
	Preview        [][]string
	Rows           int
	Observations   int
	Skipped        int
	Warnings       []string
	Result         experiment.ComparisonResult
	Recommendation experiment.Recommendation
	HasChart       bool
	Bounds         bounds
	Sim            experiment.SimulationParams
	SimResult      *experiment.SimulationResult
	SimError       string
}

type recommendationJSON struct {
	Ship    bool    `json:"ship"`
	Alpha   float64 `json:"alpha"`
	Message string  `json:"message"`
}

type summaryResponse struct {
	Summary        report.Summary     `json:"summary"`
	Recommendation recommendationJSON `json:"recommendation"`
}

type simulateResponse struct {
	Users          int                `json:"users"`
	BaseRate       float64            `json:"base_rate"`
	Uplift         float64            `json:"uplift"`
	Seed           uint64             `json:"seed"`
	Summary        report.Summary     `json:"summary"`
	Recommendation recommendationJSON `json:"recommendation"`
}

func (s *Server) handleIndex(c *gin.Context) {
	data := pageData{
		Title:          "Marketing A/B Test Dashboard",
		Header:         s.ds.Header,
		Preview:        s.ds.Head(PreviewRows),
		Rows:           len(s.ds.Rows),
		Observations:   len(s.ds.Observations),
		Skipped:        s.ds.Skipped,
		Warnings:       s.ds.Warnings,
		Result:         s.result,
		Recommendation: s.rec,
		HasChart:       s.chart != nil,
		Bounds:         simBounds,
		Sim:            s.defaultSimParams(),
	}
	if c.Query("simulate") != "" {
		p, err := s.parseSimParams(c)
		if err == nil && !s.simLimiter.Allow() {
			s.metrics.simulations.WithLabelValues("throttled").Inc()
			data.SimError = "too many simulations, retry shortly"
		} else if err == nil {
			data.Sim = p
			var res experiment.SimulationResult
			res, err = experiment.Simulate(p)
			if err == nil {
				data.SimResult = &res
				s.countSimulation(res)
			}
		}
		if err != nil {
			s.metrics.simulations.WithLabelValues("invalid").Inc()
			data.SimError = err.Error()
		}
	}
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(c.Writer, data); err != nil {
		logging.GetLogger(c.Request.Context()).Error("render index", zap.Error(err))
	}
}

func (s *Server) handleChart(c *gin.Context) {
	if s.chart == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data to plot"})
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/png", s.chart)
}

func (s *Server) handleSummary(c *gin.Context) {
	c.JSON(http.StatusOK, summaryResponse{
		Summary:        report.FromResult(s.result),
		Recommendation: s.recommendationJSON(s.rec),
	})
}

func (s *Server) handleSimulate(c *gin.Context) {
	p, err := s.parseSimParams(c)
	if err != nil {
		s.metrics.simulations.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !s.simLimiter.Allow() {
		s.metrics.simulations.WithLabelValues("throttled").Inc()
		c.Header("Retry-After", "1")
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many simulations, retry shortly"})
		return
	}
	res, err := experiment.Simulate(p)
	if err != nil {
		s.metrics.simulations.WithLabelValues("invalid").Inc()
		body := gin.H{"error": err.Error()}
		var pe *experiment.ParamError
		if errors.As(err, &pe) {
			body["field"] = pe.Field
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}
	rec := s.countSimulation(res)
	c.JSON(http.StatusOK, simulateResponse{
		Users:          res.Params.Users,
		BaseRate:       res.Params.BaseRate,
		Uplift:         res.Params.Uplift,
		Seed:           res.Params.Seed,
		Summary:        report.FromResult(res.Result),
		Recommendation: s.recommendationJSON(rec),
	})
}

func (s *Server) countSimulation(res experiment.SimulationResult) experiment.Recommendation {
	rec := experiment.Recommend(res.Result, s.alpha)
	outcome := "hold"
	if rec.Ship {
		outcome = "ship"
	}
	s.metrics.simulations.WithLabelValues(outcome).Inc()
	return rec
}

func (s *Server) recommendationJSON(rec experiment.Recommendation) recommendationJSON {
	alpha := s.alpha
	if !(alpha > 0 && alpha < 1) {
		alpha = experiment.DefaultAlpha
	}
	return recommendationJSON{Ship: rec.Ship, Alpha: alpha, Message: rec.Message}
}

// defaultSimParams starts the baseline at the observed control rate when it
// falls inside the simulator bounds.
func (s *Server) defaultSimParams() experiment.SimulationParams {
	p := experiment.DefaultSimulationParams()
	if m := s.result.MeanA; m >= experiment.MinSimBaseRate && m <= experiment.MaxSimBaseRate {
		p.BaseRate = m
	}
	return p
}

// parseSimParams reads users, base_rate, uplift and seed from the query,
// keeping defaults for absent keys. Range checks are left to Simulate.
func (s *Server) parseSimParams(c *gin.Context) (experiment.SimulationParams, error) {
	p := s.defaultSimParams()
	if v, ok := c.GetQuery("users"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, &queryError{key: "users", value: v}
		}
		p.Users = n
	}
	if v, ok := c.GetQuery("base_rate"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, &queryError{key: "base_rate", value: v}
		}
		p.BaseRate = f
	}
	if v, ok := c.GetQuery("uplift"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, &queryError{key: "uplift", value: v}
		}
		p.Uplift = f
	}
	if v, ok := c.GetQuery("seed"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return p, &queryError{key: "seed", value: v}
		}
		p.Seed = n
	}
	return p, nil
}

type queryError struct{ key, value string }

func (e *queryError) Error() string { return "invalid " + e.key + " " + strconv.Quote(e.value) }
