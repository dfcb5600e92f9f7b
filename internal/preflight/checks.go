package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"sagelink/internal/services"
	"sagelink/internal/services/jellyfin"
	"sagelink/internal/services/sagex"
)

// CheckSageX verifies the catalog API answers a single-record query.
func CheckSageX(ctx context.Context, client *sagex.Client) Result {
	const name = "SageX"

	if client == nil {
		return Result{Name: name, Detail: "not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeNetworkError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckJellyfin verifies Jellyfin connectivity and authentication.
func CheckJellyfin(ctx context.Context, svc jellyfin.Service) Result {
	const name = "Jellyfin"

	if svc == nil || !svc.Enabled() {
		return Result{Name: name, Detail: "missing url or api key"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := svc.Ping(checkCtx); err != nil {
		if errors.Is(err, services.ErrConfiguration) {
			return Result{Name: name, Detail: "auth failed (invalid api key)"}
		}
		return Result{Name: name, Detail: summarizeNetworkError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckLibraryRoot creates a media root when it is missing and then verifies
// access. The parent must already exist: a vanished mount should fail here
// rather than be papered over with a fresh empty tree.
func CheckLibraryRoot(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.Mkdir(path, 0o755); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: create: %v)", path, err)}
		}
	}
	return CheckDirectoryAccess(name, path)
}

func summarizeNetworkError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out (server unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out (server unreachable)"
	}
	return err.Error()
}
