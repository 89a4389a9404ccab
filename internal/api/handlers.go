package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/engine"
	"github.com/rshade/footprint/internal/estimator"
	"github.com/rshade/footprint/internal/greenops"
	"github.com/rshade/footprint/internal/logging"
	"github.com/rshade/footprint/internal/normalizer"
	"github.com/rshade/footprint/internal/recommend"
	"github.com/rshade/footprint/internal/storage"
)

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, activity.ErrEmptyLog):
		return http.StatusUnprocessableEntity
	case errors.Is(err, activity.ErrInvalidDate), errors.Is(err, storage.ErrUserRequired):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrLogNotFound), errors.Is(err, engine.ErrBudgetDisabled):
		return http.StatusNotFound
	case errors.Is(err, activity.ErrDeleteUnsupported):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error().Ctx(c.Request.Context()).Err(err).Msg("request failed")
		msg = "internal error"
	}
	c.JSON(status, errorBody{Error: msg})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type factorsResponse struct {
	Transport         map[activity.Mode]float64 `json:"transport"`
	ElectricityPerKwh float64                   `json:"electricity_per_kwh"`
	FoodPerServing    float64                   `json:"food_per_serving"`
	TransportLabels   []string                  `json:"transport_labels"`
	MealLabels        []string                  `json:"meal_labels"`
}

func (s *Server) factors(c *gin.Context) {
	f := s.engine.Factors()
	c.JSON(http.StatusOK, factorsResponse{
		Transport:         f.Transport,
		ElectricityPerKwh: f.ElectricityPerKwh,
		FoodPerServing:    f.FoodPerServing,
		TransportLabels:   normalizer.TransportLabels(),
		MealLabels:        normalizer.MealLabels(),
	})
}

type estimateResponse struct {
	Date string `json:"date"`
	// Payload is the canonical submission the activities would be stored as.
	Payload       activity.SubmissionPayload `json:"payload"`
	Breakdown     estimator.Breakdown        `json:"breakdown"`
	Equivalencies greenops.EquivalencyOutput `json:"equivalencies"`
}

// estimate previews an editable activity set. The date comes from ?date=
// and defaults to today.
func (s *Server) estimate(c *gin.Context) {
	var ea activity.EditableActivities
	if err := c.ShouldBindJSON(&ea); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	date := c.DefaultQuery("date", s.engine.Today())
	log, b, err := s.engine.Preview(ea, date)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, estimateResponse{
		Date:          date,
		Payload:       activity.NewSubmission(normalizer.Sanitize(log)),
		Breakdown:     b,
		Equivalencies: greenops.ForBreakdown(b),
	})
}

func (s *Server) submitLog(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()
	user := c.Param("user")

	var payload activity.SubmissionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	entry := logging.NewAuditEntry("api submit", logging.TraceIDFromContext(ctx)).
		WithParameters(map[string]string{"user": user, "date": payload.Date})
	res, err := s.engine.SubmitPayload(ctx, user, payload)
	if err != nil {
		logging.AuditLoggerFromContext(ctx).Log(ctx, *entry.WithError(err.Error()).WithDuration(start))
		s.fail(c, err)
		return
	}
	logging.AuditLoggerFromContext(ctx).Log(ctx, *entry.WithSuccess(1, res.Log.TotalEmissions).WithDuration(start))

	status := http.StatusCreated
	if res.Replaced {
		status = http.StatusOK
	}
	c.JSON(status, res.Log)
}

// getLog returns the stored day, or its editable form with ?view=editable.
func (s *Server) getLog(c *gin.Context) {
	ea, stored, err := s.engine.Load(c.Request.Context(), c.Param("user"), c.Param("date"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if c.Query("view") == "editable" {
		c.JSON(http.StatusOK, activity.DatedActivities{Date: stored.Date, Activities: ea})
		return
	}
	c.JSON(http.StatusOK, stored)
}

func (s *Server) listLogs(c *gin.Context) {
	logs, err := s.engine.List(c.Request.Context(), c.Param("user"), c.Query("from"), c.Query("to"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

func (s *Server) deleteLog(c *gin.Context) {
	s.fail(c, s.engine.Delete(c.Request.Context(), c.Param("user"), c.Param("date")))
}

func (s *Server) history(c *gin.Context) {
	report, err := s.engine.History(c.Request.Context(), c.Param("user"), c.Query("from"), c.Query("to"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) dashboard(c *gin.Context) {
	d, err := s.engine.Dashboard(c.Request.Context(), c.Param("user"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type recommendationsResponse struct {
	Date            string                     `json:"date"`
	HighestCategory estimator.Category         `json:"highest_category"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
	TotalSavingsKg  float64                    `json:"total_potential_savings_kg"`
}

func (s *Server) recommendations(c *gin.Context) {
	date := c.DefaultQuery("date", s.engine.Today())
	recs, stored, err := s.engine.Recommend(c.Request.Context(), c.Param("user"), date)
	if err != nil {
		s.fail(c, err)
		return
	}
	highest := estimator.Breakdown{
		Transport:   stored.TransportEmissions,
		Electricity: stored.ElectricityEmissions,
		Food:        stored.FoodEmissions,
	}.Highest()
	c.JSON(http.StatusOK, recommendationsResponse{
		Date:            date,
		HighestCategory: highest,
		Recommendations: recs,
		TotalSavingsKg:  recommend.TotalSavings(recs),
	})
}

func (s *Server) budgetStatus(c *gin.Context) {
	status, err := s.engine.EvaluateBudget(c.Request.Context(), c.Param("user"), s.budget)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
