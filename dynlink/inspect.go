package dynlink

import (
	"errors"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-multierror"

	"github.com/johannst/fun-with-elf/memory"
)

type InspectOptions struct {
	// VirtualDSOMarkers select the modules excluded from parsing. Empty means
	// DefaultVirtualDSOMarkers.
	VirtualDSOMarkers []string
	// SkipMissing skips modules without resolution data instead of failing
	// the inspection.
	SkipMissing bool
}

type Report struct {
	Walked  []*Descriptor
	Modules Modules
	// Skipped collects the ErrMissingResolutionData failures of skipped
	// modules, nil when none were skipped.
	Skipped error
}

type Inspector struct {
	logger  log.Logger
	metrics *Metrics // may be nil for tests
	options InspectOptions
}

func NewInspector(logger log.Logger, metrics *Metrics, options InspectOptions) *Inspector {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if len(options.VirtualDSOMarkers) == 0 {
		options.VirtualDSOMarkers = DefaultVirtualDSOMarkers
	}
	return &Inspector{
		logger:  logger,
		metrics: metrics,
		options: options,
	}
}

func (in *Inspector) Metrics() *Metrics {
	return in.metrics
}

// Inspect walks the chain starting at head and parses every module but the
// virtual DSO. head must be the first descriptor of the chain.
func (in *Inspector) Inspect(head memory.Pointer) (*Report, error) {
	descs, err := Walk(head)
	if err != nil {
		level.Error(in.logger).Log("msg", "no module chain", "err", err)
		return nil, &InspectError{Stage: StageWalk, Err: err}
	}
	report := new(Report)
	var skipped *multierror.Error
	for d, err := range descs {
		if err != nil {
			level.Error(in.logger).Log("msg", "failed to walk module chain", "err", err)
			return nil, &InspectError{Stage: StageWalk, Err: err}
		}
		if len(report.Walked) == 0 && !d.Prev.IsNil() {
			err = ErrInvalidHandle
			level.Error(in.logger).Log("msg", "handle is not the chain head", "module", d.DisplayName(), "prev", d.Prev.Address())
			return nil, &InspectError{Stage: StageWalk, Module: d.DisplayName(), Err: err}
		}
		in.metrics.ModulesWalked.Inc()
		report.Walked = append(report.Walked, d)
		level.Debug(in.logger).Log("msg", "found module", "module", d.DisplayName(), "base", d.Base, "dynamic", d.Dynamic.Address())

		if IsVirtualDSO(d, in.options.VirtualDSOMarkers...) {
			level.Info(in.logger).Log("msg", "skip walking dynamic tags for virtual DSO", "module", d.Name)
			in.metrics.ModulesSkipped.WithLabelValues("vdso").Inc()
			continue
		}

		idx, err := Parse(d)
		switch {
		case err == nil:
			in.metrics.ModulesParsed.Inc()
			report.Modules = append(report.Modules, idx)
		case errors.Is(err, ErrMissingResolutionData) && in.options.SkipMissing:
			level.Warn(in.logger).Log("msg", "skip module without resolution data", "module", d.DisplayName(), "err", err)
			in.metrics.ModulesSkipped.WithLabelValues("missing_resolution_data").Inc()
			skipped = multierror.Append(skipped, err)
		default:
			level.Error(in.logger).Log("msg", "failed to parse module", "module", d.DisplayName(), "err", err)
			return nil, &InspectError{Stage: StageParse, Module: d.DisplayName(), Err: err}
		}
	}
	report.Skipped = skipped.ErrorOrNil()
	return report, nil
}
