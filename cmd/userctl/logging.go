package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/matsen/userctl/internal/config"
)

// newLogger builds the diagnostic logger. Command output goes to stdout, so
// logs are written to w (stderr).
func newLogger(cfg config.Log, w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level %q", config.ErrInvalid, cfg.Level)
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true})
	}
	return logger, nil
}
