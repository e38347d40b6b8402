// Package execpipe runs an external filter command, feeding it on stdin and
// collecting its stdout. The generator uses it to pipe rendered code through
// a formatter named by --format-cmd.
package execpipe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/goaux/stacktrace/v2"
)

// CheckPath reports whether the executable can be found in PATH. Called
// before any code is rendered so a missing formatter fails the run early.
func CheckPath(executable string) error {
	_, err := stacktrace.Trace2(exec.LookPath(executable))
	return err
}

// Run executes name with args, reading its stdin from r and piping its
// stdout to w. stderr is captured and included in the returned error
// together with the command name. The command is killed when ctx is done.
func Run(ctx context.Context, w io.Writer, r io.Reader, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = r
	if out, err := cmd.StdoutPipe(); err != nil {
		return err
	} else {
		go io.Copy(w, out)
	}
	stderr := new(bytes.Buffer)
	cmd.Stderr = stderr
	if err := stacktrace.Trace(cmd.Run()); err != nil {
		return fmt.Errorf("error: %s, cause=%w, stderr=%q", name, err, stderr.String())
	}
	return nil
}
