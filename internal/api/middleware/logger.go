package middleware

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type LoggerConfig struct {
	Skipper           middleware.Skipper
	Level             zerolog.Level
	LogRequestBody    bool
	LogRequestHeader  bool
	LogRequestQuery   bool
	LogResponseBody   bool
	LogResponseHeader bool
}

// DefaultLoggerConfig logs requests at info level, skipping management routes.
var DefaultLoggerConfig = LoggerConfig{
	Skipper: SkipManagement,
	Level:   zerolog.InfoLevel,
}

// SkipManagement skips the probe and metrics endpoints.
func SkipManagement(c echo.Context) bool {
	path := c.Path()
	return strings.HasPrefix(path, "/-/") || path == "/metrics"
}

// Logger attaches a request scoped zerolog logger to the request context and
// logs every completed request.
func Logger() echo.MiddlewareFunc {
	return LoggerWithConfig(DefaultLoggerConfig)
}

func LoggerWithConfig(config LoggerConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultLoggerConfig.Skipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}

			l := log.With().Str("request_id", id).Logger()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))

			if config.Skipper(c) {
				return next(c)
			}

			req = c.Request()
			start := time.Now()

			in := zerolog.Dict().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Str("remote_ip", c.RealIP()).
				Str("user_agent", req.UserAgent())

			if config.LogRequestHeader {
				in = in.Interface("header", req.Header)
			}

			if config.LogRequestQuery {
				in = in.Interface("query", req.URL.Query())
			}

			if config.LogRequestBody && req.Body != nil {
				body, err := io.ReadAll(req.Body)
				if err != nil {
					l.Warn().Err(err).Msg("Failed to read request body for logging")
				}
				req.Body = io.NopCloser(bytes.NewReader(body))
				in = in.Bytes("body", body)
			}

			var dump *bytes.Buffer
			if config.LogResponseBody {
				dump = new(bytes.Buffer)
				res.Writer = &bodyDumpWriter{Writer: io.MultiWriter(res.Writer, dump), ResponseWriter: res.Writer}
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			out := zerolog.Dict().
				Int("status", res.Status).
				Int64("bytes", res.Size)

			if config.LogResponseHeader {
				out = out.Interface("header", res.Header())
			}

			if dump != nil {
				out = out.Bytes("body", dump.Bytes())
			}

			level := config.Level
			if res.Status >= http.StatusInternalServerError {
				level = zerolog.ErrorLevel
			} else if res.Status >= http.StatusBadRequest && level < zerolog.WarnLevel {
				level = zerolog.WarnLevel
			}

			l.WithLevel(level).
				Dict("req", in).
				Dict("res", out).
				Dur("duration_ms", time.Since(start)).
				Msg("http_request")

			// the error was handled above
			return nil
		}
	}
}

type bodyDumpWriter struct {
	io.Writer
	http.ResponseWriter
}

func (w *bodyDumpWriter) WriteHeader(code int) {
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyDumpWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w *bodyDumpWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *bodyDumpWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(w.ResponseWriter).Hijack()
}
