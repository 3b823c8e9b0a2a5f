// Package scope resolves the final ordered target list from positional
// command-line arguments or a scope file.
package scope

import (
	"bufio"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/osprey-sec/osprey/pkg/plugin"
	"github.com/osprey-sec/osprey/pkg/usage"
)

// Resolve determines the target list. When exactly one positional argument
// names an existing file, the scope is replaced by that file's non-blank,
// trimmed lines (one target per line). Otherwise the arguments are used
// verbatim, in the given order, without deduplication.
func Resolve(args []string, pluginGroup string, listingRequested bool) ([]string, error) {
	if pluginGroup != plugin.GroupAuxiliary && len(args) == 0 && !listingRequested {
		// Accepted without targets today; target-count enforcement for
		// non-auxiliary runs has never been wired in.
		return args, nil
	}

	if len(args) == 1 {
		if info, err := os.Stat(args[0]); err == nil && !info.IsDir() {
			logrus.Info("Scope file: trying to load targets from it ..")
			return readScopeFile(args[0])
		}
	}
	return args, nil
}

// readScopeFile splits the file on newlines, trims whitespace and drops
// blank lines. A file yielding no usable lines is a usage error.
func readScopeFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		target := strings.TrimSpace(scanner.Text())
		if target == "" {
			continue
		}
		targets = append(targets, target)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(targets) == 0 {
		return nil, usage.Errorf("please provide a scope file (1 target x line)")
	}
	return targets, nil
}
