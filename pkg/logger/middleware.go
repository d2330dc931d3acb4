package logger

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestLogger logs one line per request with the method, route, status,
// latency and request id. Echo's HTTPErrorHandler runs first so the logged
// status is the one the client received.
//
// Only the route pattern is logged, never the raw URI: identity tokens
// travel in the query string of websocket upgrades and upload tokens in the
// path of upload requests.
//
// The request context carries a child logger tagged with the request id.
// Fields added to it with Annotate also appear on the final request line.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = req.Header.Get(echo.HeaderXRequestID)
			}
			ctx := log.With().Str("request_id", reqID).Logger().WithContext(req.Context())
			c.SetRequest(req.WithContext(ctx))
			reqLog := zerolog.Ctx(ctx)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			var evt *zerolog.Event
			switch {
			case status >= 500:
				evt = reqLog.Error()
			case status >= 400:
				evt = reqLog.Warn()
			default:
				evt = reqLog.Info()
			}

			evt.Str("method", req.Method).
				Str("path", c.Path()).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Msg("request")

			// The error was already rendered above.
			return nil
		}
	}
}
