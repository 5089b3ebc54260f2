package maincmd_test

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironplc/ironplc-go/internal/filetest"
	"github.com/ironplc/ironplc-go/internal/maincmd"
	"github.com/ironplc/ironplc-go/lang/container"
)

var testUpdateOutputTests = flag.Bool("test.update-output-tests", false, "If set, updates the golden output files for this package.")

// TestCompileThenDump runs the compile subcommand over every JSON fixture
// under testdata/in, checks the resulting container parses with the
// expected header shape, then runs the dump subcommand over that same
// image and diffs its textual summary against testdata/out's golden files.
func TestCompileThenDump(t *testing.T) {
	fis := filetest.SourceFiles(t, "testdata/in", ".json")
	require.NotEmpty(t, fis)

	for _, fi := range fis {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			inPath := filepath.Join("testdata/in", fi.Name())

			var compileOut, compileErr bytes.Buffer
			err := maincmd.CompileFile(mainer.Stdio{Stdout: &compileOut, Stderr: &compileErr}, "", inPath)
			require.NoError(t, err)
			assert.Empty(t, compileErr.String())

			image := compileOut.Bytes()
			c, err := container.ParseContainer(image)
			require.NoError(t, err)
			assert.Equal(t, uint16(1), c.Header().FormatVersion)
			assert.Equal(t, uint16(1), c.Header().NumFunctions)
			assert.Equal(t, uint16(1), c.NumTasks())
			assert.Equal(t, uint16(1), c.NumPrograms())

			tmpPath := filepath.Join(t.TempDir(), fi.Name()+".iplc")
			require.NoError(t, os.WriteFile(tmpPath, image, 0o644))

			var dumpOut, dumpErr bytes.Buffer
			err = maincmd.DumpFile(mainer.Stdio{Stdout: &dumpOut, Stderr: &dumpErr}, tmpPath)
			require.NoError(t, err)
			assert.Empty(t, dumpErr.String())

			filetest.DiffOutput(t, fi, dumpOut.String(), "testdata/out", testUpdateOutputTests)
		})
	}
}
