// Package doctor runs the diagnostics behind "dysaccess doctor".
package doctor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// Check is one diagnostic. Run returns a short detail on success.
type Check struct {
	Name string
	Run  func(ctx context.Context) (string, error)
}

const checkTimeout = 30 * time.Second

var (
	pass = color.New(color.FgGreen, color.Bold)
	fail = color.New(color.FgRed, color.Bold)
)

// Run executes checks in order, printing PASS or FAIL for each, and returns
// an exit code (0=all pass, 1=any fail).
func Run(ctx context.Context, w io.Writer, checks []Check) int {
	fmt.Fprintln(w, "dysaccess doctor - system diagnostics")
	fmt.Fprintln(w, "=====================================")

	failed := 0
	for i, c := range checks {
		fmt.Fprintf(w, "\n[%d/%d] %s\n", i+1, len(checks), c.Name)
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		detail, err := c.Run(cctx)
		cancel()
		if err != nil {
			fmt.Fprintf(w, "  %s %v\n", fail.Sprint("FAIL:"), err)
			failed++
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", pass.Sprint("PASS:"), detail)
	}

	fmt.Fprintln(w)
	if failed == 0 {
		pass.Fprintln(w, "All checks passed!")
		return 0
	}
	fail.Fprintf(w, "%d check(s) failed. See details above.\n", failed)
	return 1
}
