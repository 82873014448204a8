// Package podcast turns parsed dialogue lines into per-line audio segment
// files ready for assembly.
package podcast

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"papercast/internal/dialogue"
	"papercast/internal/speech"
)

// ProgressFunc is called after every line, successful or not.
type ProgressFunc func(completed, total int)

type Voices struct {
	Host  speech.Voice
	Guest speech.Voice
}

func (v Voices) For(role dialogue.Role) speech.Voice {
	if role == dialogue.RoleHost {
		return v.Host
	}
	return v.Guest
}

type Segment struct {
	Index int
	Role  dialogue.Role
	Path  string
}

type Result struct {
	Segments []Segment
	Total    int
	Failed   int
}

// Paths lists the segment files in line order.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Segments))
	for i, seg := range r.Segments {
		paths[i] = seg.Path
	}
	return paths
}

type Synthesizer struct {
	provider    speech.Provider
	voices      Voices
	parallelism int
	observe     func(ok bool)
}

type Option func(*Synthesizer)

// WithParallelism allows up to n lines in flight. Output order still follows
// the line order.
func WithParallelism(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithLineObserver registers a callback fed with each line's outcome.
func WithLineObserver(fn func(ok bool)) Option {
	return func(s *Synthesizer) {
		s.observe = fn
	}
}

func NewSynthesizer(provider speech.Provider, voices Voices, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		provider:    provider,
		voices:      voices,
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type lineResult struct {
	segment Segment
	ok      bool
}

// Synthesize renders every line into dir. A line whose synthesis or write
// fails is logged and left out; only cancellation aborts the run.
func (s *Synthesizer) Synthesize(ctx context.Context, dir string, lines []dialogue.Line, progress ProgressFunc) (*Result, error) {
	total := len(lines)
	results := make([]lineResult, total)

	var mu sync.Mutex
	completed := 0
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if progress != nil {
			progress(completed, total)
		}
	}

	if s.parallelism <= 1 {
		for i, line := range lines {
			if err := ctx.Err(); err != nil {
				removeSegments(results)
				return nil, err
			}
			results[i] = s.synthesizeLine(ctx, dir, i, total, line)
			report()
		}
	} else {
		semaphore := make(chan struct{}, s.parallelism)
		var wg sync.WaitGroup
		for i, line := range lines {
			wg.Add(1)
			go func(i int, line dialogue.Line) {
				defer wg.Done()
				select {
				case semaphore <- struct{}{}:
				case <-ctx.Done():
					return
				}
				defer func() { <-semaphore }()

				results[i] = s.synthesizeLine(ctx, dir, i, total, line)
				report()
			}(i, line)
		}
		wg.Wait()
		if err := ctx.Err(); err != nil {
			removeSegments(results)
			return nil, err
		}
	}

	result := &Result{Total: total}
	for _, r := range results {
		if r.ok {
			result.Segments = append(result.Segments, r.segment)
		} else {
			result.Failed++
		}
	}
	return result, nil
}

func (s *Synthesizer) synthesizeLine(ctx context.Context, dir string, index, total int, line dialogue.Line) lineResult {
	slog.Info("Generating speech", "line", index+1, "total", total, "role", line.Role)

	audio, err := s.provider.Synthesize(ctx, line.Text, s.voices.For(line.Role))
	if err != nil {
		slog.Warn("Skipping line, speech failed", "line", index+1, "error", err)
		s.record(false)
		return lineResult{}
	}

	path := filepath.Join(dir, SegmentName(index, line.Role, speech.DetectFormat(audio)))
	if err := os.WriteFile(path, audio, 0644); err != nil {
		slog.Warn("Skipping line, write failed", "line", index+1, "error", err)
		s.record(false)
		return lineResult{}
	}

	s.record(true)
	return lineResult{
		segment: Segment{Index: index, Role: line.Role, Path: path},
		ok:      true,
	}
}

func (s *Synthesizer) record(ok bool) {
	if s.observe != nil {
		s.observe(ok)
	}
}

func SegmentName(index int, role dialogue.Role, ext string) string {
	return fmt.Sprintf("segment_%d_%s%s", index, role, ext)
}

func removeSegments(results []lineResult) {
	for _, r := range results {
		if r.ok {
			_ = os.Remove(r.segment.Path)
		}
	}
}
