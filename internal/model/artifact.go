package model

// ClassIdentity names one generated type and where it lands.
type ClassIdentity struct {
	Name    string // hand-written type the artifact extends
	PkgPath string
	PkgName string
	Dir     string
	Imports []string
}

// ViewModelArtifact is the resolved viewmodel half. Method calls,
// subscriptions and observables are deduplicated.
type ViewModelArtifact struct {
	ClassIdentity
	Sources           []string // views (and plain models) that contributed, first-seen order
	MethodCalls       []MethodCall
	Subscriptions     []Subscription
	Observables       []ObservableField
	Localizations     []Localization
	NeedsDisposal     bool
	NeedsLocalization bool
	Localizer         TypeRef
}

// ViewArtifact is the resolved view half. Nothing is deduplicated here:
// every view member keeps its own statement.
type ViewArtifact struct {
	ClassIdentity
	ViewModel TypeRef
	Directives
	NeedsDisposal bool
}

// Artifacts is the output of one generation pass.
type Artifacts struct {
	Views       []*ViewArtifact
	ViewModels  []*ViewModelArtifact
	Diagnostics Diagnostics
}
