package main

import (
	"log"

	"github.com/sirupsen/logrus"

	"github.com/prepdeck/coach-engine/internal/api"
	"github.com/prepdeck/coach-engine/internal/config"
	"github.com/prepdeck/coach-engine/internal/engine"
	"github.com/prepdeck/coach-engine/internal/machine"
	"github.com/prepdeck/coach-engine/internal/rules"
	"github.com/prepdeck/coach-engine/internal/score"
	"github.com/prepdeck/coach-engine/internal/ticklog"
)

// #region main

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logrus.New()
	if level, err := logrus.ParseLevel(settings.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	provider, err := rules.NewProvider(settings.RulesPath)
	if err != nil {
		logger.WithError(err).Fatal("load rules")
	}
	logger.WithFields(logrus.Fields{
		"path":   settings.RulesPath,
		"states": len(provider.Table().States()),
	}).Info("rules loaded")

	var ticks *ticklog.Log
	if settings.DBPath != "" {
		ticks, err = ticklog.Open(settings.DBPath)
		if err != nil {
			logger.WithError(err).Fatal("open tick log")
		}
		defer ticks.Close()
		logger.WithField("path", settings.DBPath).Info("tick log enabled")
	}

	e := engine.New(provider, ticks, logger, engine.Options{
		HistoryCapacity: settings.Tuning.HistoryCapacity,
		Score: score.Config{
			SmoothingAlpha: settings.Tuning.SmoothingAlpha,
			MinHistory:     score.DefaultConfig().MinHistory,
		},
		Machine:      machine.Config{OverrideMargin: settings.Tuning.OverrideMargin},
		ExtraFillers: settings.Tuning.ExtraFillers,
	})

	server := api.NewServer(e, logger, settings.Port)
	if err := server.Start(); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

// #endregion main
