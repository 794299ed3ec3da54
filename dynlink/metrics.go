package dynlink

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	ModulesWalked  prometheus.Counter
	ModulesParsed  prometheus.Counter
	ModulesSkipped *prometheus.CounterVec
	SymbolLookups  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ModulesWalked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fun_with_elf_modules_walked_total",
			Help: "Total number of module descriptors visited in the link chain",
		}),
		ModulesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fun_with_elf_modules_parsed_total",
			Help: "Total number of modules whose dynamic section was parsed",
		}),
		ModulesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fun_with_elf_modules_skipped_total",
			Help: "Total number of modules excluded from parsing",
		}, []string{"reason"}),
		SymbolLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fun_with_elf_symbol_lookups_total",
			Help: "Total number of symbol point queries",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ModulesWalked,
			m.ModulesParsed,
			m.ModulesSkipped,
			m.SymbolLookups,
		)
	}

	return m
}

func (m *Metrics) ObserveLookup(found bool) {
	result := "not_found"
	if found {
		result = "found"
	}
	m.SymbolLookups.WithLabelValues(result).Inc()
}
