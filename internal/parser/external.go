package parser

import (
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrOutsideModule = errors.New("package outside module")
	ErrNoPackage     = errors.New("no Go package")
)

// ensurePackage makes importPath known to the type index. Packages under
// InDir were loaded by Parse; others in the same module are parsed from
// disk on first use.
func (p *Parser) ensurePackage(importPath string) (*PackageInfo, error) {
	if info, ok := p.Packages[importPath]; ok {
		return info, nil
	}
	dir, err := p.resolvePkgDir(importPath)
	if err != nil {
		return nil, err
	}
	name, files, err := p.parseDirFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Mark(errors.Newf("%s: no Go files in %s", importPath, dir), ErrNoPackage)
	}
	info := &PackageInfo{Path: importPath, Name: name, Dir: dir, Types: map[string]bool{}}
	indexTypes(info, files)
	p.Packages[importPath] = info
	slog.Debug("loaded external package", "pkg", importPath, "dir", dir)
	return info, nil
}

// resolvePkgDir maps a full import path like
//
//	"github.com/acme/game/models"
//
// onto the module directory, e.g. "<ModDir>/models".
func (p *Parser) resolvePkgDir(importPath string) (string, error) {
	if importPath == "" || p.Module == "" {
		return "", errors.Mark(errors.Newf("cannot resolve %q without a module", importPath), ErrOutsideModule)
	}
	if importPath == p.Module {
		return p.ModDir, nil
	}
	sub, ok := strings.CutPrefix(importPath, p.Module+"/")
	if !ok {
		return "", errors.WithHint(
			errors.Mark(errors.Newf("%s is not part of module %s", importPath, p.Module), ErrOutsideModule),
			"generated viewmodel files are written next to the viewmodel; keep it in this module")
	}
	return filepath.Join(p.ModDir, filepath.FromSlash(sub)), nil
}

func (p *Parser) parseDirFiles(dir string) (string, []*ast.File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", nil, errors.Wrapf(err, "reading %s", dir)
	}
	var (
		files []*ast.File
		name  string
	)
	for _, e := range entries {
		fn := e.Name()
		if e.IsDir() || !strings.HasSuffix(fn, ".go") || strings.HasSuffix(fn, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(p.fset, filepath.Join(dir, fn), nil, parser.ParseComments)
		if err != nil {
			return "", nil, errors.Wrapf(err, "parsing %s", fn)
		}
		if name == "" {
			name = f.Name.Name
		}
		files = append(files, f)
	}
	return name, files, nil
}

func indexTypes(info *PackageInfo, files []*ast.File) {
	for _, file := range files {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok {
					info.Types[ts.Name.Name] = true
				}
			}
		}
	}
}
