package preflight

import (
	"context"
	"log/slog"

	"sagelink/internal/config"
	"sagelink/internal/logging"
	"sagelink/internal/services/jellyfin"
	"sagelink/internal/services/sagex"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional checks are reported but never block a run.
	Optional bool
}

// RunAll executes the checks a reconciliation run depends on. The catalog
// check is skipped when client is nil; Jellyfin is only checked when enabled.
func RunAll(ctx context.Context, cfg *config.Config, client *sagex.Client) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Target root", cfg.Paths.TargetRoot),
		CheckLibraryRoot("Movies root", cfg.MoviesRoot()),
		CheckLibraryRoot("TV root", cfg.TVRoot()),
	}

	if client != nil {
		results = append(results, CheckSageX(ctx, client))
	}
	if cfg.Jellyfin.Enabled {
		check := CheckJellyfin(ctx, jellyfin.NewConfiguredService(cfg))
		check.Optional = true
		results = append(results, check)
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// Log writes each passing result at DEBUG and each failure as a WARN with
// remediation fields.
func Log(logger *slog.Logger, results []Result) {
	if logger == nil {
		return
	}
	for _, r := range results {
		if r.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "verify the path or service named by the check"),
		)
	}
}
