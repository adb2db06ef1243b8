package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Runner lets tests stub external commands.
type Runner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger zerolog.Logger
}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner(logger zerolog.Logger) Runner {
	return &execRunner{logger: logger}
}

func (r *execRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("cmd", name).
			Str("args", strings.Join(args, " ")).
			Dur("duration", time.Since(start)).
			Str("stderr", truncate(errb.String(), 8<<10)).
			Msg("exec failed")
	} else {
		r.logger.Debug().
			Str("cmd", name).
			Dur("duration", time.Since(start)).
			Int("stdout_bytes", out.Len()).
			Msg("exec ok")
	}

	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "...(truncated)"
}
