package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/seong-yoon-choi/onbure-sub000/internal/cli"
)

func isGroupID(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "grp-") && len(s) > len("grp-")
}

// rewriteDirectGroupArgs makes `onbure <group-id>` behave like
// `onbure groups get <group-id>`. Cobra treats the first positional token as a
// subcommand, so argv is rewritten before parsing. Persistent flags may come first.
func rewriteDirectGroupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":       true,
		"--team":      true,
		"--mode":      true,
		"--viewer":    true,
		"--format":    true,
		"--log-level": true,
	}

	insert := func(at int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:at]...)
		out = append(out, "groups", "get")
		return append(out, argv[at:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isGroupID(argv[i+1]) {
				return insert(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if isGroupID(a) {
			return insert(i)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectGroupArgs(os.Args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
