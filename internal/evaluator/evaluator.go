// Package evaluator hands generated ECMAScript text to an external runtime
// and reports back what it printed. The specification describes the
// evaluator as opaque; nothing in the example pack vendors a JavaScript VM,
// so this shells out to a `node` binary already present on the operator's
// PATH rather than fabricating one, in the same "best tool already on the
// machine" spirit as the teacher's LocalFilesystemLoader reading from the
// local disk instead of an abstracted store.
package evaluator

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/juju/errors"

	ilog "github.com/flosch/indentscript/internal/log"
)

// ErrUnavailable is returned by Run when no JavaScript runtime can be
// found on PATH.
var ErrUnavailable = errors.New("evaluator unavailable: no \"node\" binary on PATH")

// Run executes script under Node.js and returns whatever it wrote to
// standard output. The caller is responsible for any timeout via ctx.
func Run(ctx context.Context, script string) (string, error) {
	path, err := exec.LookPath("node")
	if err != nil {
		return "", errors.Trace(ErrUnavailable)
	}

	ilog.Logger.Debugf("executing generated script via %s", path)

	cmd := exec.CommandContext(ctx, path, "--input-type=module")
	cmd.Stdin = bytes.NewReader([]byte(script))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), errors.Annotatef(err, "node: %s", stderr.String())
	}
	return stdout.String(), nil
}
