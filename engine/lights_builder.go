package engine

import (
	"github.com/Carmen-Shannon/oxy-clusters/engine/cluster"
	"github.com/Carmen-Shannon/oxy-clusters/engine/light"
	"github.com/Carmen-Shannon/oxy-clusters/engine/profiler"
)

// LightsBuilderOption is a functional option for configuring Lights.
type LightsBuilderOption func(*Lights)

// WithLightStoreOptions forwards options to light.NewLightStore.
//
// Parameters:
//   - opts: the light store options
//
// Returns:
//   - LightsBuilderOption: option function to apply
func WithLightStoreOptions(opts ...light.LightStoreBuilderOption) LightsBuilderOption {
	return func(l *Lights) {
		l.storeOptions = append(l.storeOptions, opts...)
	}
}

// WithAnimatorOptions forwards options to light.NewAnimator.
func WithAnimatorOptions(opts ...light.AnimatorBuilderOption) LightsBuilderOption {
	return func(l *Lights) {
		l.animatorOptions = append(l.animatorOptions, opts...)
	}
}

// WithGridOptions forwards options to cluster.NewGrid.
//
// Parameters:
//   - opts: the grid options
//
// Returns:
//   - LightsBuilderOption: option function to apply
func WithGridOptions(opts ...cluster.GridBuilderOption) LightsBuilderOption {
	return func(l *Lights) {
		l.gridOptions = append(l.gridOptions, opts...)
	}
}

// WithBinnerOptions forwards options to cluster.NewBinner.
func WithBinnerOptions(opts ...cluster.BinnerBuilderOption) LightsBuilderOption {
	return func(l *Lights) {
		l.binnerOptions = append(l.binnerOptions, opts...)
	}
}

// WithLightsProfiler shares an existing profiler instead of creating one.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - LightsBuilderOption: option function to apply
func WithLightsProfiler(p *profiler.Profiler) LightsBuilderOption {
	return func(l *Lights) {
		if p != nil {
			l.profiler = p
		}
	}
}
