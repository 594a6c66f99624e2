package logging

import (
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/lmittmann/tint"

	"github.com/othaldo/luftcheck/internal/config"
)

// New builds the process logger. Dev builds and APP_ENV=dev get colored tint
// output, everything else logs JSON.
func New(cfg config.Config, version string, appName string) *slog.Logger {
	return newWithWriter(os.Stdout, cfg, version, appName)
}

func newWithWriter(w io.Writer, cfg config.Config, version string, appName string) *slog.Logger {
	if version == "dev" || cfg.AppEnv == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			AddSource:  cfg.LogLevel <= slog.LevelDebug,
			TimeFormat: time.TimeOnly,
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: nonFiniteAsString,
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
	)
}

// nonFiniteAsString renders NaN and ±Inf readings as strings; the JSON
// handler cannot encode them as numbers.
func nonFiniteAsString(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindFloat64 {
		return a
	}
	f := a.Value.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return slog.String(a.Key, strconv.FormatFloat(f, 'f', -1, 64))
	}
	return a
}
