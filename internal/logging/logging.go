package logging

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/matheuscscp/lark-oidc-proxy/internal/constants"
)

type (
	contextKeyLogger    struct{}
	contextKeyRequestID struct{}
)

func init() {
	logrus.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	})
}

// LoadLevel sets the global level from LOG_LEVEL. On an invalid value the
// level falls back to info and the error is returned for the caller to log.
func LoadLevel() error {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = logrus.InfoLevel.String()
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		allLevels := make([]string, 0, len(logrus.AllLevels))
		for _, l := range logrus.AllLevels {
			allLevels = append(allLevels, l.String())
		}
		logrus.SetLevel(logrus.InfoLevel)
		return fmt.Errorf("invalid LOG_LEVEL '%s', must be one of [%s]", logLevel, strings.Join(allLevels, ", "))
	}
	logrus.SetLevel(level)
	return nil
}

// WithRequest attaches a request ID and a request-scoped logger to r. The ID
// is taken from the X-Request-ID header when the caller sent one.
func WithRequest(r *http.Request) *http.Request {
	requestID := strings.TrimSpace(r.Header.Get(constants.HeaderRequestID))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx := context.WithValue(r.Context(), contextKeyRequestID{}, requestID)
	ctx = IntoContext(ctx, logrus.WithFields(logrus.Fields{
		"requestID": requestID,
		"http": logrus.Fields{
			"host":   r.Host,
			"method": r.Method,
			"path":   r.URL.Path,
		},
	}))
	return r.WithContext(ctx)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID{}).(string)
	return id
}

func FromRequest(r *http.Request) logrus.FieldLogger {
	return FromContext(r.Context())
}

func FromContext(ctx context.Context) logrus.FieldLogger {
	if l, ok := ctx.Value(contextKeyLogger{}).(logrus.FieldLogger); ok && l != nil {
		return l
	}
	return logrus.StandardLogger()
}

func IntoRequest(r *http.Request, logger logrus.FieldLogger) *http.Request {
	return r.WithContext(IntoContext(r.Context(), logger))
}

func IntoContext(ctx context.Context, logger logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, contextKeyLogger{}, logger)
}
