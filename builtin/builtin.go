// Package builtin provides the default tools registered into every CLI
// chain. All of them are declared through registry.New so their parameter
// schemas are derived from the argument structs at registration time.
package builtin

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/chain/registry"
)

const (
	// maxReadBytes caps file contents fed back to the model.
	maxReadBytes = 64 * 1024
	// maxGlobMatches caps glob listings fed back to the model.
	maxGlobMatches = 200
)

// errTooManyMatches stops the glob walk once maxGlobMatches is reached.
var errTooManyMatches = errors.New("too many matches")

// Tools returns the built-in default tools.
func Tools() []registry.Tool {
	return []registry.Tool{
		VersionTool(),
		NowTool(),
		ReadTool(),
		GlobTool(),
	}
}

// VersionTool reports the running binary's module version.
func VersionTool() registry.Tool {
	return registry.Must("version", "Return the version of the chain tool.",
		func(_ context.Context, _ struct{}) (string, error) {
			info, ok := debug.ReadBuildInfo()
			if !ok || info.Main.Version == "" {
				return "chain (version unknown)", nil
			}
			return "chain " + info.Main.Version, nil
		})
}

type nowArgs struct {
	Zone string `json:"zone,omitempty" description:"IANA timezone name (e.g. Europe/Warsaw); defaults to UTC"`
}

// NowTool reports the current time.
func NowTool() registry.Tool {
	return registry.Must("now", "Return the current date and time.",
		func(_ context.Context, a nowArgs) (string, error) {
			loc := time.UTC
			if a.Zone != "" {
				var err error
				loc, err = time.LoadLocation(a.Zone)
				if err != nil {
					return "", fmt.Errorf("unknown timezone %q", a.Zone)
				}
			}
			return time.Now().In(loc).Format(time.RFC3339), nil
		})
}

type readArgs struct {
	Path string `json:"path" description:"Path of the file to read"`
}

// ReadTool returns a file's contents, capped at maxReadBytes.
func ReadTool() registry.Tool {
	return registry.Must("read", "Read a text file and return its contents.",
		func(_ context.Context, a readArgs) (string, error) {
			content, err := os.ReadFile(a.Path)
			if err != nil {
				return "", fmt.Errorf("failed to read file: %s", err)
			}
			if len(content) > maxReadBytes {
				return string(content[:maxReadBytes]) +
					fmt.Sprintf("\n[truncated: file is %d bytes, showing first %d]", len(content), maxReadBytes), nil
			}
			return string(content), nil
		})
}

type globArgs struct {
	Pattern string `json:"pattern" description:"Glob pattern to match files (e.g. **/*.go)"`
	Path    string `json:"path" description:"Base directory to search from"`
}

// GlobTool finds files matching a glob pattern. Supports ** for recursive
// matching.
func GlobTool() registry.Tool {
	return registry.Must("glob", "Find files matching a glob pattern.",
		func(_ context.Context, a globArgs) (string, error) {
			if !doublestar.ValidatePattern(a.Pattern) {
				return "", fmt.Errorf("invalid glob pattern: %s", a.Pattern)
			}
			info, err := os.Stat(a.Path)
			if err != nil {
				return "", fmt.Errorf("failed to access path: %s", err)
			}
			if !info.IsDir() {
				return "", fmt.Errorf("path must be a directory")
			}

			fsys := os.DirFS(a.Path)
			var matches []string
			err = doublestar.GlobWalk(fsys, a.Pattern, func(path string, d iofs.DirEntry) error {
				if d.IsDir() {
					return nil
				}
				matches = append(matches, filepath.FromSlash(path))
				if len(matches) >= maxGlobMatches {
					return errTooManyMatches
				}
				return nil
			})
			if err != nil && err != errTooManyMatches {
				return "", fmt.Errorf("error matching pattern: %s", err)
			}
			if len(matches) == 0 {
				return "no matches found", nil
			}
			return strings.Join(matches, "\n"), nil
		})
}
