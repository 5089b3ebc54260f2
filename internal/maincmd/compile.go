package maincmd

import (
	"context"
	"os"

	"github.com/mna/mainer"

	"github.com/ironplc/ironplc-go/internal/astjson"
	"github.com/ironplc/ironplc-go/internal/driver"
)

// Compile runs the compile subcommand: decode the JSON library at args[0],
// run Components A-D, write the resulting container image to c.Output (or
// stdout when unset).
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CompileFile(stdio, c.Output, args[0])
}

// CompileFile is the subcommand's body, factored out for testability.
func CompileFile(stdio mainer.Stdio, output, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return printError(stdio, err)
	}

	library, err := astjson.Decode(data)
	if err != nil {
		return printError(stdio, err)
	}

	result, err := driver.Compile(library)
	if err != nil {
		return printError(stdio, err)
	}

	if output == "" {
		_, err = stdio.Stdout.Write(result.Image)
		return printError(stdio, err)
	}
	return printError(stdio, os.WriteFile(output, result.Image, 0o644))
}
