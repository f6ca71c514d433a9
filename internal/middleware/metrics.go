package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"taskdesk/internal/pkg/metrics"
)

// Metrics records request latency labelled by the matched route.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		metrics.APILatency.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
		return err
	}
}
