package logs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger = logrus.New()

type Options struct {
	Level  string
	Format string // "text" | "json"
	File   string // empty = stdout
}

func Init(o Options) {
	lvl, err := logrus.ParseLevel(o.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)

	switch o.Format {
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	if o.File == "" {
		Logger.SetOutput(os.Stdout)
		return
	}
	if dir := filepath.Dir(o.File); dir != "." {
		_ = os.MkdirAll(dir, 0755)
	}
	Logger.SetOutput(&lumberjack.Logger{
		Filename:   o.File,
		MaxSize:    50, // MB
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	})
}

// Component returns a logger entry tagged with the subsystem name.
func Component(name string) *logrus.Entry {
	return Logger.WithField("component", name)
}
