package check

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"

	"github.com/cmmoran/viewbindgen/internal/model"
	"github.com/cmmoran/viewbindgen/internal/parser"
	"github.com/cmmoran/viewbindgen/pkg/action/generate"
	"github.com/cmmoran/viewbindgen/pkg/manifest"
)

// ErrStale is returned by Report.Err when generated files are out of date.
var ErrStale = errors.New("generated files are stale")

// Report lists how the files on disk differ from a fresh render.
type Report struct {
	// Diffs maps file path to a textual diff (-disk +generated).
	Diffs map[string]string
	// Stale lists files the manifest records that would be removed.
	Stale       []string
	Diagnostics model.Diagnostics
}

// Clean reports whether the disk matches the render.
func (r *Report) Clean() bool {
	return len(r.Diffs) == 0 && len(r.Stale) == 0
}

func (r *Report) Err() error {
	if r.Clean() {
		return nil
	}
	return errors.WithHint(
		errors.Mark(errors.Newf("%d file(s) differ, %d stale", len(r.Diffs), len(r.Stale)), ErrStale),
		"run viewbindgen generate")
}

// String renders the report with files in path order.
func (r *Report) String() string {
	var (
		sb    strings.Builder
		paths = make([]string, 0, len(r.Diffs))
	)
	for p := range r.Diffs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(&sb, "--- %s\n%s\n", p, r.Diffs[p])
	}
	for _, p := range r.Stale {
		fmt.Fprintf(&sb, "stale: %s\n", p)
	}
	return sb.String()
}

// Check renders the module under opts.InDir and compares it with the disk
// without writing anything.
func Check(opts *parser.Options) (*Report, error) {
	out, err := generate.Render(opts)
	if err != nil {
		return nil, err
	}
	rep, err := Compare(generate.ManifestPath(&out.Parser.Opts), out.Files)
	if err != nil {
		return nil, err
	}
	rep.Diagnostics = out.Diagnostics
	return rep, nil
}

// Compare diffs files against their on-disk versions. A missing file
// diffs against empty content.
func Compare(manifestPath string, files []parser.GeneratedFile) (*Report, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	var (
		root    = filepath.Dir(manifestPath)
		rep     = &Report{Diffs: map[string]string{}}
		current = make(map[string]bool, len(files))
	)
	for _, f := range files {
		current[generate.RelPath(root, f.Path)] = true
		onDisk, err := os.ReadFile(f.Path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(err, "read %s", f.Path)
		}
		if bytes.Equal(onDisk, f.Content) {
			continue
		}
		rep.Diffs[f.Path] = cmp.Diff(string(onDisk), string(f.Content))
	}
	for _, rec := range m.Files {
		if current[rec.Path] {
			continue
		}
		path := filepath.Join(root, filepath.FromSlash(rec.Path))
		if _, err := os.Stat(path); err == nil {
			rep.Stale = append(rep.Stale, path)
		}
	}
	sort.Strings(rep.Stale)
	return rep, nil
}
