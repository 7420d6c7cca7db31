// Package collector walks an audit root and yields source files lazily.
package collector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/huangsam/codeaudit/schema"
)

// DefaultIgnoreDirs are directory names that are never descended into.
var DefaultIgnoreDirs = []string{"node_modules", ".git", "dist", "build", "__pycache__", ".cache", "coverage"}

// ErrNotDirectory is returned when the audit root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// errStop ends a walk early without reporting an error.
var errStop = errors.New("stop walk")

// Options configures a FileCollector.
type Options struct {
	IgnoreDirs  []string      // Directory names to prune; nil means DefaultIgnoreDirs
	Excludes    []string      // Doublestar globs matched against the relative path and the base name
	ReadTimeout time.Duration // Upper bound for a single file read; 0 disables it
	Owned       []string      // Slash-separated relative paths the tool writes itself; never walked
}

// Entry is one filesystem entry seen during a walk.
type Entry struct {
	RelativePath string // Slash-separated, "." for the root
	Name         string
	Extension    string // Lowercased, empty for directories and dotfiles without a suffix
	IsDir        bool
}

// FileCollector enumerates the files under a root directory.
type FileCollector struct {
	root        string
	ignore      map[string]struct{}
	excludes    []string
	owned       []string
	readTimeout time.Duration
}

// New creates a FileCollector rooted at root.
func New(root string, opts Options) (*FileCollector, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	ignoreDirs := opts.IgnoreDirs
	if ignoreDirs == nil {
		ignoreDirs = DefaultIgnoreDirs
	}
	ignore := make(map[string]struct{}, len(ignoreDirs))
	for _, d := range ignoreDirs {
		ignore[d] = struct{}{}
	}

	return &FileCollector{
		root:        abs,
		ignore:      ignore,
		excludes:    opts.Excludes,
		owned:       cleanOwned(opts.Owned),
		readTimeout: opts.ReadTimeout,
	}, nil
}

// Root returns the absolute audit root.
func (c *FileCollector) Root() string {
	return c.root
}

// IsIgnoredDir reports whether a directory name is pruned from walks.
func (c *FileCollector) IsIgnoredDir(name string) bool {
	_, ok := c.ignore[name]
	return ok
}

// Exists reports whether a slash-separated relative path exists under the root.
func (c *FileCollector) Exists(rel string) bool {
	_, err := os.Stat(filepath.Join(c.root, filepath.FromSlash(rel)))
	return err == nil
}

// excluded reports whether the relative path matches any exclude glob.
func (c *FileCollector) excluded(rel, name string) bool {
	for _, pattern := range c.excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// cleanOwned normalizes owned paths and drops any that escape the root.
func cleanOwned(paths []string) []string {
	var out []string
	for _, p := range paths {
		p = path.Clean(filepath.ToSlash(p))
		if p == "." || p == ".." || strings.HasPrefix(p, "../") || path.IsAbs(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// isOwned reports whether rel is an owned path or lies inside one.
func (c *FileCollector) isOwned(rel string) bool {
	for _, p := range c.owned {
		if rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}

// holdsOnlyOwned reports whether dir is a parent of an owned path and
// everything visible beneath it is owned. Such a directory exists only
// because the tool created it.
func (c *FileCollector) holdsOnlyOwned(dir, rel string) bool {
	parent := false
	for _, p := range c.owned {
		if strings.HasPrefix(p, rel+"/") {
			parent = true
			break
		}
	}
	if !parent {
		return false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		childRel := rel + "/" + e.Name()
		switch {
		case c.isOwned(childRel):
		case c.excluded(childRel, e.Name()):
		case e.IsDir() && c.IsIgnoredDir(e.Name()):
		case e.IsDir() && c.holdsOnlyOwned(filepath.Join(dir, e.Name()), childRel):
		default:
			return false
		}
	}
	return true
}

// Walk visits every non-ignored entry in lexical order, the root included.
// The context is checked before descending into each directory.
// Unreadable directories are skipped silently.
func (c *FileCollector) Walk(ctx context.Context, fn func(Entry) error) error {
	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != c.root {
				return fs.SkipDir
			}
			if path == c.root {
				return err
			}
			return nil
		}

		rel, relErr := filepath.Rel(c.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		name := d.Name()

		if d.IsDir() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if path != c.root && (c.IsIgnoredDir(name) || c.excluded(rel, name) || c.isOwned(rel) || c.holdsOnlyOwned(path, rel)) {
				return fs.SkipDir
			}
			return fn(Entry{RelativePath: rel, Name: name, IsDir: true})
		}

		if c.excluded(rel, name) || c.isOwned(rel) {
			return nil
		}
		return fn(Entry{RelativePath: rel, Name: name, Extension: ExtensionOf(name)})
	})
	if errors.Is(err, errStop) {
		return nil
	}
	return err
}

// Files returns a lazy single-pass sequence of records for files whose
// extension is in exts. Content is read only when a record is yielded.
func (c *FileCollector) Files(ctx context.Context, exts []string) iter.Seq[schema.FileRecord] {
	return c.FilesMatching(ctx, exts, nil)
}

// FilesMatching is like Files but also drops relative paths rejected by keep
// before their content is read. A nil keep accepts every path.
func (c *FileCollector) FilesMatching(ctx context.Context, exts []string, keep func(rel string) bool) iter.Seq[schema.FileRecord] {
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	return func(yield func(schema.FileRecord) bool) {
		_ = c.Walk(ctx, func(e Entry) error {
			if e.IsDir {
				return nil
			}
			if _, ok := allowed[e.Extension]; !ok {
				return nil
			}
			if keep != nil && !keep(e.RelativePath) {
				return nil
			}
			if !yield(c.ReadFile(ctx, e.RelativePath)) {
				return errStop
			}
			return nil
		})
	}
}

// ReadFile reads one file relative to the root. Failures are recorded on the
// returned record instead of being returned.
func (c *FileCollector) ReadFile(ctx context.Context, rel string) schema.FileRecord {
	record := schema.FileRecord{
		RelativePath: rel,
		Extension:    ExtensionOf(filepath.Base(rel)),
	}

	data, err := c.readBytes(ctx, filepath.Join(c.root, filepath.FromSlash(rel)))
	if err != nil {
		record.Err = err
		return record
	}
	record.Content, record.LineCount = DecodeContent(data)
	return record
}

type readResult struct {
	data []byte
	err  error
}

// readBytes reads a file, bounded by the configured read timeout.
func (c *FileCollector) readBytes(ctx context.Context, path string) ([]byte, error) {
	if c.readTimeout <= 0 {
		return os.ReadFile(path)
	}

	done := make(chan readResult, 1)
	go func() {
		data, err := os.ReadFile(path)
		done <- readResult{data: data, err: err}
	}()

	timer := time.NewTimer(c.readTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.data, res.err
	case <-timer.C:
		return nil, fmt.Errorf("read of %s timed out after %v", path, c.readTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DecodeContent drops invalid UTF-8 sequences and counts newline-separated lines.
func DecodeContent(data []byte) (string, int) {
	content := strings.ToValidUTF8(string(data), "")
	return content, strings.Count(content, "\n") + 1
}

// ExtensionOf returns the lowercased suffix of a file name.
// Dotfiles without a second dot have no suffix.
func ExtensionOf(name string) string {
	trimmed := strings.TrimLeft(name, ".")
	ext := filepath.Ext(trimmed)
	return strings.ToLower(ext)
}
