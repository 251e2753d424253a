// Package logging holds the named logger scopes shared across dasbus.
//
// Each scope is an independent *zap.SugaredLogger so a caller can raise the
// level on, say, the star-node dispatcher without turning on bus-node chatter.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu      sync.Mutex
	base    *zap.Logger
	scopes  = map[string]*zap.SugaredLogger{}
	scopeNames = []string{"bus", "busnode", "starnode", "proxy", "evolution", "servicebus", "space", "cli"}
)

func init() {
	base, _ = zap.NewProduction()
	if base == nil {
		base = zap.NewNop()
	}
	for _, name := range scopeNames {
		scopes[name] = base.Sugar().Named(name)
	}
}

// Scope returns the named logger, creating a nop-backed one if name is unknown.
func Scope(name string) *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	if s, ok := scopes[name]; ok {
		return s
	}
	s := base.Sugar().Named(name)
	scopes[name] = s
	return s
}

// Configure rebuilds every registered scope from cfg. Only later Scope calls
// see the rebuilt loggers; a logger already returned by Scope (such as a
// package-level log variable) keeps its previous configuration.
func Configure(cfg zap.Config) error {
	mu.Lock()
	defer mu.Unlock()
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	base = l
	for _, name := range scopeNames {
		scopes[name] = base.Sugar().Named(name)
	}
	return nil
}

// Sync flushes all buffered log entries; call it once from main before exit.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	_ = base.Sync()
}
