package generate

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/cmmoran/viewbindgen/internal/model"
	"github.com/cmmoran/viewbindgen/internal/parser"
	"github.com/cmmoran/viewbindgen/pkg/manifest"
)

// Output is a rendered run that has not touched the disk yet.
type Output struct {
	Parser      *parser.Parser
	Files       []parser.GeneratedFile
	Diagnostics model.Diagnostics
}

// Render scans opts.InDir and renders every artifact in memory. Diagnostics
// are logged and returned; only scan failures are errors.
func Render(opts *parser.Options) (*Output, error) {
	par, err := parser.NewWithOpts(opts)
	if err != nil {
		return nil, err
	}
	if err = par.Parse(); err != nil {
		return nil, err
	}
	files, rdiags := parser.NewRenderer(&par.Opts).Render(par.Artifacts)
	diags := append(append(model.Diagnostics{}, par.Artifacts.Diagnostics...), rdiags...)
	for _, d := range diags {
		slog.Warn("binding diagnostic",
			"view", d.View, "member", d.Member, "directive", d.Directive,
			"pos", d.Pos.String(), "error", d.Err.Error())
	}
	slog.Debug("rendered",
		"views", len(par.Artifacts.Views), "viewmodels", len(par.Artifacts.ViewModels), "files", len(files))
	return &Output{Parser: par, Files: files, Diagnostics: diags}, nil
}

// ManifestPath resolves the manifest setting against InDir.
func ManifestPath(opts *parser.Options) string {
	if filepath.IsAbs(opts.Manifest) {
		return opts.Manifest
	}
	return filepath.Join(opts.InDir, opts.Manifest)
}

// Result reports what a run did on disk.
type Result struct {
	Written     []string
	Unchanged   []string
	Removed     []string
	Diagnostics model.Diagnostics

	allowDiagnostics bool
}

// Err joins the diagnostics into one error unless they were allowed.
func (r *Result) Err() error {
	if r.allowDiagnostics {
		return nil
	}
	return r.Diagnostics.Err()
}

// Generate renders the module under opts.InDir and writes what changed.
func Generate(opts *parser.Options) (*Result, error) {
	out, err := Render(opts)
	if err != nil {
		return nil, err
	}
	res, err := Write(ManifestPath(&out.Parser.Opts), out.Parser.Module, out.Files)
	if err != nil {
		return nil, err
	}
	res.Diagnostics = out.Diagnostics
	res.allowDiagnostics = out.Parser.Opts.AllowDiagnostics
	slog.Info("generated",
		"written", len(res.Written), "unchanged", len(res.Unchanged),
		"removed", len(res.Removed), "diagnostics", len(res.Diagnostics))
	return res, nil
}

// Write stores files, skipping those whose bytes are already on disk, and
// removes files the previous run recorded in the manifest but this run no
// longer produces. Files without the generated banner are never removed.
func Write(manifestPath, module string, files []parser.GeneratedFile) (*Result, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	var (
		root    = filepath.Dir(manifestPath)
		res     = &Result{}
		entries = make([]manifest.File, 0, len(files))
	)

	for _, f := range files {
		entries = append(entries, manifest.File{
			Path:   RelPath(root, f.Path),
			Owner:  f.Owner,
			SHA256: manifest.Sum(f.Content),
		})
		if onDisk, err := os.ReadFile(f.Path); err == nil && bytes.Equal(onDisk, f.Content) {
			slog.Debug("unchanged", "file", f.Path)
			res.Unchanged = append(res.Unchanged, f.Path)
			continue
		}
		if err := os.WriteFile(f.Path, f.Content, 0o644); err != nil {
			return nil, errors.Wrapf(err, "write %s", f.Path)
		}
		slog.Debug("written", "file", f.Path, "owner", f.Owner)
		res.Written = append(res.Written, f.Path)
	}

	m.Module = module
	for _, rel := range m.Replace(entries) {
		path := filepath.Join(root, filepath.FromSlash(rel))
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read stale %s", path)
		}
		if !bytes.Contains(data, []byte(parser.Banner)) {
			slog.Warn("stale file is not generated, keeping it", "file", path)
			continue
		}
		if err := os.Remove(path); err != nil {
			return nil, errors.Wrapf(err, "remove stale %s", path)
		}
		slog.Debug("removed", "file", path)
		res.Removed = append(res.Removed, path)
	}

	if err := m.Save(manifestPath); err != nil {
		return nil, err
	}
	return res, nil
}

// RelPath is path relative to root in slash form, or path itself when it
// lies elsewhere.
func RelPath(root, path string) string {
	absRoot, err1 := filepath.Abs(root)
	absPath, err2 := filepath.Abs(path)
	if err1 == nil && err2 == nil {
		if rel, err := filepath.Rel(absRoot, absPath); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}
