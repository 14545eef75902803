// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package filequeue feeds file paths into an [iterq.Queue].
//
// A Scanner registers as one producer, walks the given paths, puts every
// regular file whose base name matches its filter, then finishes:
//
//	q := iterq.NewQueue[string](256)
//	s := &filequeue.Scanner{Filter: "*.json"}
//	go s.Scan(ctx, q, []string{"data/"})
//	for path := range q.All(ctx) {
//	    process(path)
//	    q.TaskDone()
//	}
package filequeue

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"code.hybscloud.com/iterq"
)

// Producer is the queue surface a Scanner needs.
type Producer interface {
	AddProducer(n int) (int, error)
	Finish() bool
	Put(ctx context.Context, item string) error
}

// Scanner walks files and directories and queues matching file paths.
// The zero value queues every regular file.
type Scanner struct {
	// Filter is a filepath.Match pattern applied to file base names.
	// Empty means "*".
	Filter string

	// Exclude queues files that do NOT match Filter.
	Exclude bool

	// CaseSensitive selects case-sensitive matching. Matching folds case
	// when false.
	CaseSensitive bool

	// Base is joined in front of relative input paths.
	Base string

	// Logger receives per-path errors and debug traces. Nil discards.
	Logger *slog.Logger
}

// Scan registers one producer on q, queues the files found under paths,
// and finishes. Directories are walked recursively.
//
// Paths that cannot be read are logged and skipped. Returns whether the
// final Finish filled the queue. A non-nil error means scanning stopped
// early: the queue was closed by someone else, ctx ended, or registration
// failed; the producer is still finished in the first two cases.
func (s *Scanner) Scan(ctx context.Context, q Producer, paths []string) (bool, error) {
	if err := s.validate(); err != nil {
		return false, err
	}
	if _, err := q.AddProducer(1); err != nil {
		return false, err
	}
	for _, p := range paths {
		if err := s.put(ctx, q, p); err != nil {
			return q.Finish(), err
		}
	}
	return q.Finish(), nil
}

// ScanReader is Scan with newline-separated paths read from r, such as
// standard input. Blank lines are skipped.
func (s *Scanner) ScanReader(ctx context.Context, q Producer, r io.Reader) (bool, error) {
	if err := s.validate(); err != nil {
		return false, err
	}
	if _, err := q.AddProducer(1); err != nil {
		return false, err
	}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if err := s.put(ctx, q, line); err != nil {
			return q.Finish(), err
		}
	}
	if err := sc.Err(); err != nil {
		return q.Finish(), fmt.Errorf("filequeue: read paths: %w", err)
	}
	return q.Finish(), nil
}

// Match reports whether a file with the given base name would be queued.
func (s *Scanner) Match(name string) bool {
	pattern := s.pattern()
	if !s.CaseSensitive {
		pattern = strings.ToLower(pattern)
		name = strings.ToLower(name)
	}
	// Pattern syntax is checked by validate
	m, _ := filepath.Match(pattern, name)
	return m != s.Exclude
}

func (s *Scanner) pattern() string {
	if s.Filter == "" {
		return "*"
	}
	return s.Filter
}

func (s *Scanner) validate() error {
	if _, err := filepath.Match(s.pattern(), ""); err != nil {
		return fmt.Errorf("filequeue: filter %q: %w", s.Filter, err)
	}
	return nil
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

// put queues path, or the matching files below it when it is a directory.
// Only queue and context errors are returned; filesystem errors are logged.
func (s *Scanner) put(ctx context.Context, q Producer, path string) error {
	if s.Base != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.Base, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		s.logger().Error("skipping path", "path", path, "err", err)
		return nil
	}
	if !info.IsDir() {
		if info.Mode().IsRegular() && s.Match(info.Name()) {
			return s.enqueue(ctx, q, path)
		}
		return nil
	}

	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger().Error("skipping path", "path", p, "err", err)
			if d != nil && d.IsDir() && p != path {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !s.Match(d.Name()) {
			return nil
		}
		return s.enqueue(ctx, q, p)
	})
}

func (s *Scanner) enqueue(ctx context.Context, q Producer, path string) error {
	s.logger().Debug("queueing file", "path", path)
	if err := q.Put(ctx, path); err != nil {
		if errors.Is(err, iterq.ErrClosed) {
			s.logger().Debug("queue closed, scan stopped", "path", path)
		}
		return err
	}
	return nil
}
