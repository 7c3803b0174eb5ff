package logger

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

type Options struct {
	Service string
	Env     string
	Level   string
}

// Setup configures the global logrus logger and returns an entry carrying
// the service and env fields.
func Setup(opts Options) *log.Entry {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(parseLevel(opts.Level))

	return log.WithFields(log.Fields{
		"service": opts.Service,
		"env":     opts.Env,
	})
}

func parseLevel(lvl string) log.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
