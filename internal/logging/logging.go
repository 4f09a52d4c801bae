// Package logging provides categorized structured logging built on zap.
// Until Init is called every category logger is a no-op, so library
// code can log unconditionally and tests stay silent.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a subsystem. Each category gets a named child logger.
type Category string

const (
	CategoryBoot     Category = "boot"
	CategoryDocument Category = "document"
	CategoryRegistry Category = "registry"
	CategorySkills   Category = "skills"
	CategoryRouter   Category = "router"
	CategoryTools    Category = "tools"
	CategoryCalc     Category = "calc"
	CategoryAgent    Category = "agent"
	CategoryAPI      Category = "api"
)

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	sugared = make(map[Category]*zap.SugaredLogger)
)

// Init builds the process-wide logger. With a non-empty logDir, output
// goes to sheetagent.log inside it; otherwise to stderr. Debug lowers
// the level and switches to the development encoder.
func Init(debug bool, logDir string) error {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		cfg.OutputPaths = []string{filepath.Join(logDir, "sheetagent.log")}
		cfg.ErrorOutputPaths = cfg.OutputPaths
	}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	mu.Lock()
	base = logger
	sugared = make(map[Category]*zap.SugaredLogger)
	mu.Unlock()
	return nil
}

// SetLogger replaces the base logger. Tests pass zap.NewNop().
func SetLogger(l *zap.Logger) {
	mu.Lock()
	base = l
	sugared = make(map[Category]*zap.SugaredLogger)
	mu.Unlock()
}

// L returns the cached sugared logger for a category.
func L(cat Category) *zap.SugaredLogger {
	mu.RLock()
	if s, ok := sugared[cat]; ok {
		mu.RUnlock()
		return s
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if s, ok := sugared[cat]; ok {
		return s
	}
	s := base.Named(string(cat)).Sugar()
	sugared[cat] = s
	return s
}

// Sync flushes any buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}
