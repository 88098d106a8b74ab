package parser

import (
	"go/ast"
	"go/token"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/tools/go/packages"

	"github.com/cmmoran/viewbindgen/internal/model"
)

// PackageInfo is what the scanner keeps about each loaded package.
type PackageInfo struct {
	Path  string
	Name  string
	Dir   string
	Types map[string]bool
}

type Packages map[string]*PackageInfo

// HasType reports whether ref names a type declared in a loaded package.
func (ps Packages) HasType(ref model.TypeRef) bool {
	info, ok := ps[ref.PkgPath]
	return ok && info.Types[ref.Name]
}

// Parser holds state/results of a parse run.
type Parser struct {
	Opts Options

	// Module is the module path of the go.mod enclosing InDir.
	Module string
	ModDir string

	Views       model.RawViews
	Packages    Packages
	Artifacts   *model.Artifacts
	Diagnostics model.Diagnostics

	fset *token.FileSet
}

// New executes the parser with opts.
func New(opts ...Option) (*Parser, error) {
	o := NewOptions()
	for _, fn := range opts {
		fn(o)
	}

	return NewWithOpts(o)
}

func NewWithOpts(opts *Options) (*Parser, error) {
	opts.Normalize()

	p := &Parser{
		Opts:     *opts,
		Views:    make(model.RawViews, 0),
		Packages: make(Packages),
		fset:     token.NewFileSet(),
	}

	return p, nil
}

// Parse loads every package under InDir, collects annotated types and
// assembles the artifacts.
func (p *Parser) Parse() error {
	if err := p.readModule(); err != nil {
		return err
	}
	pkgs, err := packages.Load(&packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
		Dir:  p.Opts.InDir,
		Fset: p.fset,
	}, "./...")
	if err != nil {
		return errors.Wrapf(err, "loading packages in %s", p.Opts.InDir)
	}
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			slog.Warn("package error", "pkg", pkg.PkgPath, "error", e.Msg)
		}
		dir := ""
		if len(pkg.GoFiles) > 0 {
			dir = filepath.Dir(pkg.GoFiles[0])
		}
		p.addPackage(pkg.PkgPath, pkg.Name, dir, pkg.Syntax)
	}
	p.finish()
	return nil
}

// ParseDir scans a single directory as package pkgPath without the go
// tool. Test files are ignored.
func (p *Parser) ParseDir(dir, pkgPath string) error {
	name, files, err := p.parseDirFiles(dir)
	if err != nil {
		return err
	}
	p.addPackage(pkgPath, name, dir, files)
	p.finish()
	return nil
}

// finish orders the collected views and assembles the artifacts.
func (p *Parser) finish() {
	sort.SliceStable(p.Views, func(i, j int) bool {
		a, b := p.Views[i], p.Views[j]
		if a.PkgPath != b.PkgPath {
			return a.PkgPath < b.PkgPath
		}
		if a.Pos.Filename != b.Pos.Filename {
			return a.Pos.Filename < b.Pos.Filename
		}
		return a.Pos.Offset < b.Pos.Offset
	})
	for _, v := range p.Views {
		if !v.IsView {
			continue
		}
		if _, err := p.ensurePackage(v.ViewModel.PkgPath); err != nil {
			p.Diagnostics.Add(model.Locate(err, v.Name, "", "view", v.Pos))
		}
	}
	if ref := LocalizerRef(p.Opts.LocalizerType, ""); ref.PkgPath != "" {
		if _, err := p.ensurePackage(ref.PkgPath); err != nil {
			slog.Warn("localizer package unavailable", "type", p.Opts.LocalizerType, "error", err)
		}
	}
	p.Artifacts = NewAssembler(&p.Opts, p.Packages).Assemble(p.Views)
	diags := append(model.Diagnostics{}, p.Diagnostics...)
	p.Artifacts.Diagnostics = append(diags, p.Artifacts.Diagnostics...)
}

func (p *Parser) addPackage(pkgPath, pkgName, dir string, files []*ast.File) {
	info := p.Packages[pkgPath]
	if info == nil {
		info = &PackageInfo{Path: pkgPath, Name: pkgName, Dir: dir, Types: map[string]bool{}}
		p.Packages[pkgPath] = info
	}
	indexTypes(info, files)
	byName := map[string]*model.RawView{}
	for _, file := range files {
		for _, v := range p.collectViews(info, file) {
			if v.IsView {
				byName[v.Name] = v
			}
			p.Views = append(p.Views, v)
		}
	}
	for _, file := range files {
		p.collectMethods(byName, file)
	}
}

// -----------------------------------------------------------------------------
// Types
// -----------------------------------------------------------------------------

func (p *Parser) collectViews(info *PackageInfo, file *ast.File) []*model.RawView {
	var out []*model.RawView
	imports := fileImports(file)

	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			doc := ts.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			pos := p.fset.Position(ts.Pos())
			dirs, err := commentDirectives(p.fset, doc, p.Opts.DirectivePrefix)
			if err != nil {
				p.Diagnostics.Add(model.Locate(err, ts.Name.Name, "", "", pos))
			}
			if len(dirs) == 0 {
				continue
			}
			v := p.newView(info, ts, dirs, imports, pos)
			if v == nil {
				continue
			}
			if viewExcluded(v.Name, &p.Opts) {
				slog.Debug("view excluded", "view", v.Name)
				continue
			}
			if st, ok := ts.Type.(*ast.StructType); ok && v.IsView {
				v.Members = append(v.Members, p.collectFields(v, st)...)
			}
			out = append(out, v)
		}
	}
	return out
}

// newView classifies a type by its family directive. Remaining type-level
// directives become a MemberType member.
func (p *Parser) newView(info *PackageInfo, ts *ast.TypeSpec, dirs []*model.RawDirective, imports map[string]string, pos token.Position) *model.RawView {
	var (
		family *model.RawDirective
		rest   []*model.RawDirective
	)
	for _, d := range dirs {
		if d.Kind == "view" || d.Kind == "model" {
			if family != nil {
				p.Diagnostics.Add(model.Locate(model.Configf("type declares both %s and %s", family.Kind, d.Kind),
					ts.Name.Name, "", d.Kind, d.Pos))
				continue
			}
			family = d
			continue
		}
		rest = append(rest, d)
	}
	if family == nil {
		p.Diagnostics.Add(model.Locate(errors.WithHint(
			model.Configf("type directives without a family"),
			"add //"+p.Opts.DirectivePrefix+"view <ViewModel> or //"+p.Opts.DirectivePrefix+"model"),
			ts.Name.Name, "", rest[0].Kind, rest[0].Pos))
		return nil
	}

	v := &model.RawView{
		Name:    ts.Name.Name,
		PkgPath: info.Path,
		PkgName: info.Name,
		Dir:     info.Dir,
		IsView:  family.Kind == "view",
		Pos:     pos,
	}
	if raw, ok := family.Arg("imports"); ok {
		for _, imp := range strings.Split(raw, ",") {
			imp = strings.TrimSpace(imp)
			if imp == "" {
				continue
			}
			if err := module.CheckImportPath(imp); err != nil {
				p.Diagnostics.Add(model.Locate(model.Configf("invalid import %q: %v", imp, err), v.Name, "", family.Kind, family.Pos))
				continue
			}
			v.Imports = append(v.Imports, imp)
		}
	}
	if v.IsView {
		ref, err := p.resolveTypeRef(family.First(), info.Path, imports)
		if err != nil {
			p.Diagnostics.Add(model.Locate(err, v.Name, "", family.Kind, family.Pos))
			return nil
		}
		v.ViewModel = ref
	}
	if len(rest) > 0 {
		v.Members = append(v.Members, &model.RawMember{
			Name:       v.Name,
			Kind:       model.MemberType,
			Directives: rest,
			Pos:        pos,
		})
	}
	return v
}

// resolveTypeRef reads "Name", "alias.Name" (an import of the declaring
// file) or "full/import/path.Name".
func (p *Parser) resolveTypeRef(s, home string, imports map[string]string) (model.TypeRef, error) {
	if s == "" {
		return model.TypeRef{}, errors.WithHint(model.Configf("view requires a viewmodel type"),
			"write //"+p.Opts.DirectivePrefix+"view HudModel")
	}
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		if !token.IsIdentifier(s) {
			return model.TypeRef{}, model.Configf("invalid viewmodel type %q", s)
		}
		return model.TypeRef{PkgPath: home, Name: s}, nil
	}
	pkg, name := s[:i], s[i+1:]
	if !token.IsIdentifier(name) {
		return model.TypeRef{}, model.Configf("invalid viewmodel type %q", s)
	}
	if full, ok := imports[pkg]; ok {
		return model.TypeRef{PkgPath: full, Name: name}, nil
	}
	if err := module.CheckImportPath(pkg); err != nil {
		return model.TypeRef{}, model.Configf("invalid viewmodel package %q: %v", pkg, err)
	}
	return model.TypeRef{PkgPath: pkg, Name: name}, nil
}

func (p *Parser) collectFields(v *model.RawView, st *ast.StructType) []*model.RawMember {
	var out []*model.RawMember
	for _, fld := range st.Fields.List {
		if fld.Tag == nil || len(fld.Names) == 0 {
			continue
		}
		parts, omitted := fieldDirectives(fld.Tag.Value, p.Opts.TagKey)
		if omitted || len(parts) == 0 {
			continue
		}
		pos := p.fset.Position(fld.Pos())
		var dirs []*model.RawDirective
		for _, part := range parts {
			d, err := parseDirective(part, pos)
			if err != nil {
				p.Diagnostics.Add(model.Locate(err, v.Name, fld.Names[0].Name, "", pos))
				continue
			}
			dirs = append(dirs, d)
		}
		_, isSlice := fld.Type.(*ast.ArrayType)
		for _, id := range fld.Names {
			out = append(out, &model.RawMember{
				Name:       id.Name,
				Kind:       model.MemberField,
				IsSlice:    isSlice,
				Directives: dirs,
				Pos:        p.fset.Position(id.Pos()),
			})
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Methods
// -----------------------------------------------------------------------------

func (p *Parser) collectMethods(views map[string]*model.RawView, file *ast.File) {
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || len(fn.Recv.List) == 0 || fn.Doc == nil {
			continue
		}
		v := views[receiverName(fn.Recv.List[0].Type)]
		if v == nil {
			continue
		}
		pos := p.fset.Position(fn.Pos())
		dirs, err := commentDirectives(p.fset, fn.Doc, p.Opts.DirectivePrefix)
		if err != nil {
			p.Diagnostics.Add(model.Locate(err, v.Name, fn.Name.Name, "", pos))
		}
		if len(dirs) == 0 {
			continue
		}
		v.Members = append(v.Members, &model.RawMember{
			Name:       fn.Name.Name,
			Kind:       model.MemberMethod,
			Directives: dirs,
			Pos:        pos,
		})
	}
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	}
	return ""
}

// fileImports maps each import's local name to its path.
func fileImports(file *ast.File) map[string]string {
	m := make(map[string]string, len(file.Imports))
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		alias := path.Base(p)
		if imp.Name != nil {
			if imp.Name.Name == "_" || imp.Name.Name == "." {
				continue
			}
			alias = imp.Name.Name
		}
		m[alias] = p
	}
	return m
}

// -----------------------------------------------------------------------------
// Module
// -----------------------------------------------------------------------------

// findGoModDir walks up from InDir until it finds go.mod.
func (p *Parser) findGoModDir() (string, error) {
	from := p.Opts.InDir
	for {
		if _, err := os.Stat(filepath.Join(from, "go.mod")); err == nil {
			return from, nil
		}
		parent := filepath.Dir(from)
		if parent == from {
			return "", errors.WithHint(errors.Newf("no go.mod found above %s", p.Opts.InDir),
				"run inside a Go module or pass --in")
		}
		from = parent
	}
}

func (p *Parser) readModule() error {
	dir, err := p.findGoModDir()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return errors.Wrap(err, "reading go.mod")
	}
	p.ModDir = dir
	p.Module = modfile.ModulePath(data)
	if p.Module == "" {
		return errors.Newf("%s/go.mod has no module directive", dir)
	}
	slog.Debug("module", "path", p.Module, "dir", dir)
	return nil
}
