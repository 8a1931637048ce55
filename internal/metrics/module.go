package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Module provides metrics registry and checkout collectors.
var Module = fx.Provide(
	NewRegistry,
	func(reg *prometheus.Registry) prometheus.Gatherer { return reg },
	func(reg *prometheus.Registry) *Metrics { return New(reg) },
)
