package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FlareSome/Weather-Prediction/internal/combined"
	"github.com/FlareSome/Weather-Prediction/internal/forecast"
	"github.com/FlareSome/Weather-Prediction/internal/sensor"
	"github.com/FlareSome/Weather-Prediction/internal/store"
)

var validate = validator.New()

// ReadingStore is the slice of the store the HTTP layer reads from.
type ReadingStore interface {
	LatestReading(ctx context.Context) (sensor.Reading, error)
	ReadingsRange(ctx context.Context, from, to time.Time) ([]sensor.Reading, error)
	DailyTrends(ctx context.Context, days int) ([]store.TrendRow, error)
}

// Forecaster is the slice of the model the HTTP layer reads from.
type Forecaster interface {
	Predict(days int) (forecast.Prediction, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, engine *combined.Engine, readings ReadingStore, model Forecaster) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-station",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	v1.Get("/weather/combined", func(c *fiber.Ctx) error {
		// Combine never fails; unavailable upstreams degrade to defaults.
		return c.JSON(engine.Combine(c.Context()))
	})

	v1.Get("/sensor/latest", func(c *fiber.Ctx) error {
		r, err := readings.LatestReading(c.Context())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no sensor readings yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest reading")
		}
		return c.JSON(r)
	})

	v1.Get("/sensor/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rows, err := readings.ReadingsRange(c.Context(), req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no readings in requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch reading history")
		}

		return c.JSON(fiber.Map{
			"from":     req.From,
			"to":       req.To,
			"readings": rows,
		})
	})

	v1.Get("/sensor/trends", func(c *fiber.Ctx) error {
		req := trendsQuery{Days: 7}
		if v := c.Query("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "days must be an integer")
			}
			req.Days = n
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rows, err := readings.DailyTrends(c.Context(), req.Days)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch daily trends")
		}
		return c.JSON(fiber.Map{
			"days":   req.Days,
			"trends": rows,
		})
	})

	v1.Get("/forecast/model", func(c *fiber.Ctx) error {
		days, err := forecastDays(c)
		if err != nil {
			return err
		}

		pred, err := model.Predict(days)
		if err != nil {
			return modelError(err)
		}
		return c.JSON(pred)
	})

	v1.Get("/forecast/insight", func(c *fiber.Ctx) error {
		pred, err := model.Predict(combined.ForecastDays)
		if err != nil {
			return modelError(err)
		}
		return c.JSON(forecast.BuildInsight(pred))
	})
}

// forecastDays parses and validates the optional days parameter (1-7).
func forecastDays(c *fiber.Ctx) (int, error) {
	req := forecastQuery{Days: combined.ForecastDays}
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fiber.NewError(fiber.StatusBadRequest, "days must be an integer")
		}
		req.Days = n
	}
	if err := validate.Struct(req); err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return req.Days, nil
}

func modelError(err error) error {
	if errors.Is(err, forecast.ErrNotTrained) {
		return fiber.NewError(fiber.StatusServiceUnavailable, "forecast model is not trained yet")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to compute forecast")
}

// forecastQuery holds the forecast endpoints' query parameters.
type forecastQuery struct {
	Days int `validate:"required,min=1,max=7"`
}

// trendsQuery holds the trends endpoint's query parameters.
type trendsQuery struct {
	Days int `validate:"required,min=1,max=30"`
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
