package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"songbook/internal/catalog"
	"songbook/internal/config"
	"songbook/internal/lyrics"
)

const geniusCheckTimeout = 10 * time.Second

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

// CheckCatalog verifies that the catalog decodes. A missing catalog passes
// since every command treats it as empty.
func CheckCatalog(path string) Result {
	const name = "Catalog"
	records, err := catalog.NewStore(path, "", nil).Load()
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if len(records) == 0 {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", path)}
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d records)", path, len(records))}
}

// CheckBinary verifies that command resolves to an executable.
func CheckBinary(name, command string) Result {
	command = strings.TrimSpace(command)
	if command == "" {
		return Result{Name: name, Detail: "command not configured"}
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", command)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}

// CheckGenius verifies that the Genius API accepts the configured token.
// It issues a single search and does not retry.
func CheckGenius(ctx context.Context, cfg config.Lyrics) Result {
	const name = "Genius API"
	client, err := lyrics.NewClient(lyrics.ClientConfig{Token: cfg.APIToken, BaseURL: cfg.BaseURL})
	if errors.Is(err, lyrics.ErrNoToken) {
		return Result{Name: name, Detail: "api token missing (set GENIUS_API_TOKEN)"}
	}
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, geniusCheckTimeout)
	defer cancel()
	if _, err := client.Search(checkCtx, "songbook"); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
