package binding

import (
	"github.com/cmmoran/viewbindgen/internal/model"
)

// Dedup keeps the first element of every equivalence class under eq and
// preserves first-seen order. It never consults map iteration, so the same
// input always yields the same output.
func Dedup[T any](in []T, eq func(a, b T) bool) []T {
	out := make([]T, 0, len(in))
	for _, candidate := range in {
		dup := false
		for _, kept := range out {
			if eq(kept, candidate) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, candidate)
		}
	}
	return out
}

// MethodCallEquivalent compares only what shapes the viewmodel side.
func MethodCallEquivalent(a, b model.MethodCall) bool {
	return a.Method == b.Method &&
		a.Forward == b.Forward &&
		a.Creation.Equivalent(b.Creation)
}

func SubscriptionEquivalent(a, b model.Subscription) bool {
	return a.Method == b.Method && a.Creation.Equivalent(b.Creation)
}

// ObservableEquivalent ignores every view-side field; two widgets bound to
// the same primitive share one declaration.
func ObservableEquivalent(a, b model.ObservableField) bool {
	return a.Creation.Equivalent(b.Creation)
}

func DedupMethodCalls(in []model.MethodCall) []model.MethodCall {
	return Dedup(in, MethodCallEquivalent)
}

func DedupSubscriptions(in []model.Subscription) []model.Subscription {
	return Dedup(in, SubscriptionEquivalent)
}

func DedupObservables(in []model.ObservableField) []model.ObservableField {
	return Dedup(in, ObservableEquivalent)
}
