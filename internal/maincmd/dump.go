package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/ironplc/ironplc-go/internal/driver"
)

// Dump runs the dump subcommand: read the container image at args[0] and
// print a summary of its header and section sizes.
func (c *Cmd) Dump(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return DumpFile(stdio, args[0])
}

// DumpFile is the subcommand's body, factored out for testability.
func DumpFile(stdio mainer.Stdio, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return printError(stdio, err)
	}

	summary, err := driver.DumpSummary(data)
	if err != nil {
		return printError(stdio, err)
	}

	fmt.Fprint(stdio.Stdout, summary)
	return nil
}
