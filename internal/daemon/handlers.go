package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/subdash/subdash/internal/cohort"
	"github.com/subdash/subdash/internal/daily"
	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/projection"
	"github.com/subdash/subdash/internal/report"
	"github.com/subdash/subdash/internal/source"
	"github.com/subdash/subdash/internal/trend"
)

func (s *Service) routes() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "subdash",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	app.Use(recover.New())
	app.Use(s.requestLogger)

	app.Get("/healthz", s.handleHealth)

	v1 := app.Group("/v1")
	v1.Get("/status", s.handleStatus)
	v1.Get("/events", s.handleEvents)
	v1.Get("/plan", s.handlePlan)
	v1.Get("/variance/:month", s.handleVariance)
	v1.Get("/trends", s.handleTrends)
	v1.Get("/forecast", s.handleForecast)
	v1.Get("/cohorts/:month", s.handleCohort)
	v1.Get("/daily/:month", s.handleDaily)
	v1.Post("/daily", s.handleRecordDaily)
	v1.Get("/report/:month", s.handleReport)
	return app
}

func (s *Service) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Debug("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("took", time.Since(start)),
		zap.Error(err))
	return err
}

func (s *Service) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, errNotReady):
		code = fiber.StatusServiceUnavailable
	case errors.Is(err, projection.ErrInvalidParameter):
		code = fiber.StatusUnprocessableEntity
	}
	if code >= fiber.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func (s *Service) handleHealth(c *fiber.Ctx) error {
	return c.SendString("ok\n")
}

func (s *Service) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.snapshotStatus())
}

func (s *Service) handleEvents(c *fiber.Ctx) error {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	since := int64(c.QueryInt("since", 0))
	out := events[:0]
	for _, ev := range events {
		if ev.ID > since {
			out = append(out, ev)
		}
	}
	return c.JSON(out)
}

func (s *Service) handlePlan(c *fiber.Ctx) error {
	ds, err := s.currentDataset()
	if err != nil {
		return err
	}
	params := report.PlanFor(s.cfg.Params, ds)
	plan, err := projection.Project(params)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"source":   ds.SourceLabel(),
		"summary":  projection.Summarize(plan),
		"months":   plan,
		"warnings": projection.Warnings(params),
	})
}

// monthReport builds the report for the :month route parameter.
func (s *Service) monthReport(c *fiber.Ctx) (*report.Monthly, error) {
	m, err := model.ParseMonth(c.Params("month"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	ds, err := s.currentDataset()
	if err != nil {
		return nil, err
	}
	return report.Build(s.inputs(ds), m)
}

func (s *Service) handleVariance(c *fiber.Ctx) error {
	r, err := s.monthReport(c)
	if err != nil {
		return err
	}
	switch {
	case r.PlanMonth == nil:
		return fiber.NewError(fiber.StatusNotFound, "month is outside the plan horizon")
	case r.Variance == nil:
		return fiber.NewError(fiber.StatusNotFound, "no actuals reported for "+r.Month.String())
	}
	for _, n := range r.Variance.Notes {
		s.log.Info("channel mismatch",
			zap.String("month", r.Month.String()),
			zap.String("channel", n.Channel),
			zap.String("note", n.Message))
	}
	return c.JSON(r.Variance)
}

func (s *Service) handleTrends(c *fiber.Ctx) error {
	ds, err := s.currentDataset()
	if err != nil {
		return err
	}
	sum, err := trend.Analyze(ds.History(), s.cfg.Trend)
	if errors.Is(err, trend.ErrInsufficientHistory) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(sum)
}

func (s *Service) handleForecast(c *fiber.Ctx) error {
	ds, err := s.currentDataset()
	if err != nil {
		return err
	}
	months := c.QueryInt("months", s.cfg.ForecastMonths)
	if months < 1 || months > 36 {
		return fiber.NewError(fiber.StatusBadRequest, "months must be between 1 and 36")
	}
	points, err := trend.Forecast(ds.History(), months, s.cfg.Trend)
	if errors.Is(err, trend.ErrInsufficientHistory) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(points)
}

func (s *Service) handleCohort(c *fiber.Ctx) error {
	m, err := model.ParseMonth(c.Params("month"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	ds, err := s.currentDataset()
	if err != nil {
		return err
	}
	res, err := cohort.Compute(ds.Customers, m, s.now(), s.cfg.Pricing)
	if errors.Is(err, cohort.ErrNoCohortData) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Service) handleDaily(c *fiber.Ctx) error {
	r, err := s.monthReport(c)
	if err != nil {
		return err
	}
	if r.Targets == nil {
		return fiber.NewError(fiber.StatusNotFound, "month is outside the plan horizon")
	}
	ds, err := s.currentDataset()
	if err != nil {
		return err
	}
	reports := ds.Daily[r.Month]
	through := c.QueryInt("through", report.ThroughDay(reports, r.Month, s.now()))
	return c.JSON(fiber.Map{
		"targets":  r.Targets,
		"progress": daily.Accumulate(reports, *r.Targets, through),
	})
}

func (s *Service) handleRecordDaily(c *fiber.Ctx) error {
	if s.rec == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no record store configured")
	}
	var raw source.RawDaily
	if err := c.BodyParser(&raw); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	d, err := source.ConvertDaily(raw)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
	defer cancel()
	id, err := s.rec.SaveDaily(ctx, d)
	if err != nil {
		return err
	}
	s.log.Info("daily report recorded", zap.String("id", id), zap.Time("date", d.Date))
	s.Refresh(ctx)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id, "date": d.Date.Format(time.DateOnly)})
}

func (s *Service) handleReport(c *fiber.Ctx) error {
	r, err := s.monthReport(c)
	if err != nil {
		return err
	}
	switch c.Query("format", "json") {
	case "markdown", "md":
		c.Type("md", "utf-8")
		return c.SendString(r.Markdown())
	case "html":
		html, err := r.HTML()
		if err != nil {
			return err
		}
		c.Type("html", "utf-8")
		return c.Send(html)
	default:
		return c.JSON(r)
	}
}
