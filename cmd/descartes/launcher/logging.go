package launcher

import (
	"fmt"
	"io"
	"time"

	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
)

// verbosityLevel maps 0..5 (fatal..trace) to logrus levels.
func verbosityLevel(v int) logrus.Level {
	if v < 0 {
		v = 0
	}
	if v > 5 {
		v = 5
	}
	return logrus.Level(v + 1)
}

func setupLogging(w io.Writer, cfg LoggingConfig, sentry SentryConfig, name string) (*logrus.Entry, error) {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(verbosityLevel(cfg.Verbosity))

	switch cfg.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{
			ForceColors:   cfg.Color,
			DisableColors: !cfg.Color,
			FullTimestamp: true,
		})
	default:
		return nil, fmt.Errorf("unknown log format %q (valid: text, json)", cfg.Format)
	}

	if sentry.DSN != "" {
		hook, err := logrus_sentry.NewSentryHook(sentry.DSN, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set up sentry: %w", err)
		}
		hook.Timeout = 5 * time.Second
		log.AddHook(hook)
	}
	return log.WithField("node", name), nil
}
