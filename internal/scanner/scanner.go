// Package scanner finds microC sources in a directory tree. It honours
// .mcaignore files with gitignore-style patterns.
package scanner

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/exp/slices"
)

// FileInfo describes one discovered source file.
type FileInfo struct {
	Path     string // relative to the scan root, slash separated
	FullPath string
	Size     int64
}

// Options configures a scan.
type Options struct {
	SkipHidden      bool     // skip names starting with "."
	FollowSymlinks  bool     // follow file symlinks that stay inside the root
	DefaultExcludes []string // directory names never entered
	IgnoreFileName  string
	Extensions      []string // source extensions, lower case with the dot
}

// DefaultOptions returns the options used by mca.
func DefaultOptions() Options {
	return Options{
		SkipHidden:      true,
		IgnoreFileName:  ".mcaignore",
		DefaultExcludes: []string{".git", ".hg", ".svn", ".mca", "node_modules", "vendor", "build", "dist"},
		Extensions:      []string{".mc", ".microc"},
	}
}

// Scanner walks directory trees.
type Scanner struct {
	opts Options
}

func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// IsSource reports whether name has one of the configured extensions.
func (s *Scanner) IsSource(name string) bool {
	return slices.Contains(s.opts.Extensions, strings.ToLower(filepath.Ext(name)))
}

// Scan returns the source files under root sorted by path.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var rules ruleSet
	var files []FileInfo

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." {
				if s.opts.SkipHidden && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				if s.excluded(d.Name()) || rules.ignored(rel, true) {
					return filepath.SkipDir
				}
			}
			patterns, err := s.loadIgnoreFile(path, rel)
			if err != nil {
				return fmt.Errorf("loading ignore patterns: %w", err)
			}
			rules = append(rules, patterns...)
			return nil
		}

		if s.opts.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if !s.IsSource(d.Name()) || rules.ignored(rel, false) {
			return nil
		}

		fi, ok := s.resolve(absRoot, path, d)
		if !ok {
			return nil
		}
		files = append(files, FileInfo{Path: rel, FullPath: path, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// resolve returns the file info of a regular file or of a symlink target
// inside root.
func (s *Scanner) resolve(root, path string, d fs.DirEntry) (fs.FileInfo, bool) {
	if d.Type()&fs.ModeSymlink == 0 {
		fi, err := d.Info()
		return fi, err == nil
	}
	if !s.opts.FollowSymlinks {
		return nil, false
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, false
	}
	if !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return nil, false
	}
	fi, err := os.Stat(target)
	if err != nil || fi.IsDir() {
		return nil, false
	}
	return fi, true
}

func (s *Scanner) excluded(name string) bool {
	for _, ex := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, ex) {
			return true
		}
	}
	return false
}

// loadIgnoreFile reads the ignore file of dir. Patterns are anchored at dir,
// whose path relative to the scan root is base.
func (s *Scanner) loadIgnoreFile(dir, base string) ([]Pattern, error) {
	if s.opts.IgnoreFileName == "" {
		return nil, nil
	}
	f, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var patterns []Pattern
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p := ParsePattern(line)
		if base != "." {
			p.base = base
		}
		patterns = append(patterns, p)
	}
	return patterns, sc.Err()
}

// Scan scans root with the default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}
