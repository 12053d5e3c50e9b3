package main

import (
	"fmt"
	"os"
	"path/filepath"

	"tracerank/internal/config"
	"tracerank/internal/logging"
	"tracerank/internal/pipeline"
	"tracerank/internal/rank"
	"tracerank/internal/storage"
)

// openRecorder opens the rank log and, unless disabled, the run history.
// The returned function closes both.
func openRecorder(cfg *config.Config, logPath, batchID string, logger *logging.Logger) (*pipeline.Recorder, func()) {
	rankLog, err := rank.OpenRankLog(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rec := &pipeline.Recorder{Log: rankLog, Meta: pipeline.MetaFor(cfg.Analysis, batchID)}
	if cfg.Storage.Enabled {
		db, err := storage.Open(dataDir(cfg), logger)
		if err != nil {
			logger.Warn("Run history unavailable", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			rec.DB = db
		}
	}

	return rec, func() {
		if err := rankLog.Close(); err != nil {
			logger.Error("Failed to close rank log", map[string]interface{}{"error": err.Error()})
		}
		if rec.DB != nil {
			rec.DB.Close()
		}
	}
}

// recordAndClose records o, then closes the recorder whether or not the write succeeded.
func recordAndClose(rec *pipeline.Recorder, closeRecorder func(), o *rank.Outcome) error {
	defer closeRecorder()
	return rec.Record(o)
}

// dataDir resolves storage.dataDir against --root.
func dataDir(cfg *config.Config) string {
	if filepath.IsAbs(cfg.Storage.DataDir) {
		return cfg.Storage.DataDir
	}
	return filepath.Join(rootDir, cfg.Storage.DataDir)
}
