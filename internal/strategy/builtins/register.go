package builtins

import (
	"log/slog"

	"cppi/internal/strategy"
)

// Register adds every built-in strategy to r, configured with params.
func Register(r *strategy.Registry, params Params, logger *slog.Logger) {
	r.Register(CPPIName, func() (strategy.Strategy, error) {
		return NewCPPI(params, logger)
	})
}
