package parser

import (
	"path/filepath"
	"strings"

	"github.com/cmmoran/viewbindgen/internal/binding"
)

// Options control scanning and generation.
//
// InDir            – module directory to scan
// Runtime          – import path of the reactive runtime
// PrivatePrefix    – prepended to synthesized private identifiers
// TagKey           – struct tag key carrying field directives
// DirectivePrefix  – comment prefix for type and method directives
// LocalizerType    – localization provider type; bare names live in the viewmodel package
// Manifest         – manifest of generated files, relative to InDir
// ExcludeViews     – names of annotated types to skip (case-insensitive)
// Header           – extra line written under the generated-code banner
// AllowDiagnostics – exit zero even when diagnostics were reported
type Options struct {
	InDir            string   `json:"in_dir,omitempty" yaml:"in_dir,omitempty" mapstructure:"in_dir,omitempty"`
	Runtime          string   `json:"runtime_pkg,omitempty" yaml:"runtime_pkg,omitempty" mapstructure:"runtime_pkg,omitempty"`
	PrivatePrefix    string   `json:"private_prefix,omitempty" yaml:"private_prefix,omitempty" mapstructure:"private_prefix,omitempty"`
	TagKey           string   `json:"tag_key,omitempty" yaml:"tag_key,omitempty" mapstructure:"tag_key,omitempty"`
	DirectivePrefix  string   `json:"directive_prefix,omitempty" yaml:"directive_prefix,omitempty" mapstructure:"directive_prefix,omitempty"`
	LocalizerType    string   `json:"localizer_type,omitempty" yaml:"localizer_type,omitempty" mapstructure:"localizer_type,omitempty"`
	Manifest         string   `json:"manifest,omitempty" yaml:"manifest,omitempty" mapstructure:"manifest,omitempty"`
	ExcludeViews     []string `json:"exclude_views,omitempty" yaml:"exclude_views,omitempty" mapstructure:"exclude_views,omitempty"`
	Header           string   `json:"header,omitempty" yaml:"header,omitempty" mapstructure:"header,omitempty"`
	AllowDiagnostics bool     `json:"allow_diagnostics,omitempty" yaml:"allow_diagnostics,omitempty" mapstructure:"allow_diagnostics,omitempty"`
}

const (
	DefaultTagKey          = "bind"
	DefaultDirectivePrefix = "bind:"
	DefaultLocalizerType   = "Localizer"
	DefaultManifest        = ".viewbind.yaml"
)

func NewOptions() *Options {
	return &Options{
		InDir:           ".",
		Runtime:         binding.DefaultRuntime,
		TagKey:          DefaultTagKey,
		DirectivePrefix: DefaultDirectivePrefix,
		LocalizerType:   DefaultLocalizerType,
		Manifest:        DefaultManifest,
	}
}

// Normalize fills empty settings with defaults and makes InDir absolute.
func (o *Options) Normalize() {
	if o.InDir == "" {
		o.InDir = "."
	}
	if abs, err := filepath.Abs(o.InDir); err == nil {
		o.InDir = abs
	}
	if o.Runtime == "" {
		o.Runtime = binding.DefaultRuntime
	}
	if o.TagKey == "" {
		o.TagKey = DefaultTagKey
	}
	if o.DirectivePrefix == "" {
		o.DirectivePrefix = DefaultDirectivePrefix
	}
	if !strings.HasSuffix(o.DirectivePrefix, ":") {
		o.DirectivePrefix += ":"
	}
	if o.LocalizerType == "" {
		o.LocalizerType = DefaultLocalizerType
	}
	if o.Manifest == "" {
		o.Manifest = DefaultManifest
	}
	views := o.ExcludeViews[:0]
	for _, v := range o.ExcludeViews {
		if v = strings.TrimSpace(v); v != "" {
			views = append(views, v)
		}
	}
	o.ExcludeViews = views
}

// Naming is the identifier policy the options describe.
func (o *Options) Naming() binding.Naming {
	return binding.Naming{PrivatePrefix: o.PrivatePrefix}
}

// functional option pattern ---------------------------------------------------

type Option func(*Options)

func WithInDir(d string) Option           { return func(o *Options) { o.InDir = d } }
func WithRuntime(pkg string) Option       { return func(o *Options) { o.Runtime = pkg } }
func WithPrivatePrefix(p string) Option   { return func(o *Options) { o.PrivatePrefix = p } }
func WithTagKey(k string) Option          { return func(o *Options) { o.TagKey = k } }
func WithDirectivePrefix(p string) Option { return func(o *Options) { o.DirectivePrefix = p } }
func WithLocalizerType(t string) Option   { return func(o *Options) { o.LocalizerType = t } }
func WithManifest(m string) Option        { return func(o *Options) { o.Manifest = m } }
func WithHeader(h string) Option          { return func(o *Options) { o.Header = h } }
func WithAllowDiagnostics() Option        { return func(o *Options) { o.AllowDiagnostics = true } }
func WithExcludeViews(names ...string) Option {
	return func(o *Options) {
		for _, n := range names {
			o.ExcludeViews = append(o.ExcludeViews, strings.TrimSpace(n))
		}
	}
}
