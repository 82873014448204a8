// Package audio joins per-line speech segments into one MP3 with a fixed
// silence between consecutive segments.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	DefaultGap        = 500 * time.Millisecond
	silenceSampleRate = 48000
)

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type Result struct {
	Path     string
	Segments int
	Gaps     int
	Size     int64
}

// Playable reports whether the output holds any audio.
func (r *Result) Playable() bool {
	return r != nil && r.Segments > 0 && r.Size > 0
}

type Assembler struct {
	ffmpegPath string
	gap        time.Duration
	runner     Runner
}

type Option func(*Assembler)

func WithRunner(r Runner) Option {
	return func(a *Assembler) {
		a.runner = r
	}
}

func WithGap(gap time.Duration) Option {
	return func(a *Assembler) {
		if gap > 0 {
			a.gap = gap
		}
	}
}

func NewAssembler(ffmpegPath string, opts ...Option) *Assembler {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	a := &Assembler{
		ffmpegPath: ffmpegPath,
		gap:        DefaultGap,
		runner:     ExecRunner{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble concatenates segments in order into out and then deletes every
// segment file. With no segments an empty out file is created.
func (a *Assembler) Assemble(ctx context.Context, segments []string, out string) (*Result, error) {
	defer func() {
		for _, f := range segments {
			if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
				slog.Warn("Failed to remove segment", "path", f, "error", err)
			}
		}
	}()

	result := &Result{Path: out, Segments: len(segments)}

	if len(segments) == 0 {
		if err := os.WriteFile(out, nil, 0644); err != nil {
			return nil, fmt.Errorf("create empty output: %w", err)
		}
		return result, nil
	}

	args := a.buildArgs(segments, out)
	if output, err := a.runner.Run(ctx, a.ffmpegPath, args...); err != nil {
		return nil, fmt.Errorf("ffmpeg concat failed: %w, output: %s", err, string(output))
	}

	info, err := os.Stat(out)
	if err != nil {
		return nil, fmt.Errorf("stat output: %w", err)
	}

	result.Gaps = len(segments) - 1
	result.Size = info.Size()
	return result, nil
}

func (a *Assembler) buildArgs(segments []string, out string) []string {
	args := []string{"-y"}
	for _, seg := range segments {
		args = append(args, "-i", seg)
	}

	if len(segments) == 1 {
		return append(args,
			"-acodec", "libmp3lame",
			"-q:a", "2",
			out,
		)
	}

	args = append(args,
		"-f", "lavfi",
		"-t", fmt.Sprintf("%.3f", a.gap.Seconds()),
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=mono", silenceSampleRate),
	)

	return append(args,
		"-filter_complex", concatFilter(len(segments)),
		"-map", "[out]",
		"-acodec", "libmp3lame",
		"-q:a", "2",
		out,
	)
}

// concatFilter interleaves n inputs with n-1 copies of the silence input,
// which is expected at index n.
func concatFilter(n int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[%d:a]asplit=%d", n, n-1)
	for i := 0; i < n-1; i++ {
		fmt.Fprintf(&sb, "[g%d]", i)
	}
	sb.WriteString(";")

	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "[%d:a]", i)
		if i < n-1 {
			fmt.Fprintf(&sb, "[g%d]", i)
		}
	}
	fmt.Fprintf(&sb, "concat=n=%d:v=0:a=1[out]", 2*n-1)

	return sb.String()
}
