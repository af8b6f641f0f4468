package server

import (
	"crypto/subtle"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"telc-go/internal/model"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

var errorCodes = map[int]string{
	http.StatusBadRequest:            "bad_request",
	http.StatusUnauthorized:          "unauthorized",
	http.StatusForbidden:             "forbidden",
	http.StatusNotFound:              "not_found",
	http.StatusMethodNotAllowed:      "method_not_allowed",
	http.StatusRequestEntityTooLarge: "payload_too_large",
	http.StatusTooManyRequests:       "too_many_requests",
	http.StatusInternalServerError:   "internal_server_error",
	http.StatusServiceUnavailable:    "service_unavailable",
}

func errorCode(status int) string {
	if code, ok := errorCodes[status]; ok {
		return code
	}
	return strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
}

// handleError renders every error returned by a handler or middleware as
// {"error": code, "status": n}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	var he *echo.HTTPError
	switch {
	case errors.Is(err, model.ErrExamNotFound), errors.Is(err, model.ErrResultNotFound):
		status = http.StatusNotFound
	case errors.As(err, &he):
		status = he.Code
	}

	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Msg("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, errorBody{Error: errorCode(status), Status: status})
	}
	if err != nil {
		s.log.Error().Err(err).Msg("writing error response")
	}
}

// requireAdmin guards write operations with a bearer token. Without a
// configured token, debug mode allows everything and otherwise only reads pass.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := s.cfg.AdminToken
		if token == "" {
			if s.cfg.Debug || c.Request().Method == http.MethodGet {
				return next(c)
			}
			return c.JSON(http.StatusForbidden, errorBody{Error: "admin_token_not_configured", Status: http.StatusForbidden})
		}

		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		given, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			return c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized", Status: http.StatusUnauthorized})
		}
		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(given)), []byte(token)) != 1 {
			return c.JSON(http.StatusForbidden, errorBody{Error: "forbidden", Status: http.StatusForbidden})
		}
		return next(c)
	}
}

type rateLimitedBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// rateLimit limits requests per client IP through the injected store. Without
// a store it passes everything.
func (s *Server) rateLimit() echo.MiddlewareFunc {
	if s.limiter == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	retryAfter := int(math.Ceil(s.cfg.RetryAfter.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: s.limiter,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden).SetInternal(err)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			s.log.Warn().Str("client", identifier).Str("path", c.Path()).Msg("rate limited")
			c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
			return c.JSON(http.StatusTooManyRequests, rateLimitedBody{
				Error:      "rate_limited",
				Message:    "Too many requests, please try again later.",
				RetryAfter: retryAfter,
			})
		},
	})
}

// NewRateLimiterStore returns an in-memory store allowing requests per window
// for each client, with bursts up to requests.
func NewRateLimiterStore(requests int, window time.Duration) middleware.RateLimiterStore {
	return middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Every(window / time.Duration(requests)),
		Burst:     requests,
		ExpiresIn: 2 * window,
	})
}

func permissionsPolicy(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		return next(c)
	}
}

// requestLogger logs every request through zerolog and records it in the
// HTTP metrics.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if s.metrics != nil {
				route := c.Path()
				if route == "" {
					route = "unmatched"
				}
				s.metrics.RecordHTTPRequest(v.Method, route, strconv.Itoa(v.Status), v.Latency)
			}

			ev := s.log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = s.log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
