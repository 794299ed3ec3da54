//go:build linux

package main

import (
	"os"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/johannst/fun-with-elf/discover"
	"github.com/johannst/fun-with-elf/dynlink"
	"github.com/johannst/fun-with-elf/memory"
)

// inspectProcess takes one snapshot of the module chain of cfg.pid.
func inspectProcess() (*dynlink.Report, error) {
	proc, err := memory.OpenProcess(cfg.pid)
	if err != nil {
		return nil, err
	}
	head, err := discover.FirstModule(os.DirFS("/"), cfg.pid, proc)
	if err != nil {
		return nil, errors.Wrapf(err, "locate module chain of process %d", cfg.pid)
	}
	level.Debug(cfg.logger).Log("msg", "found module chain", "pid", cfg.pid, "head", head.Address())

	inspector := dynlink.NewInspector(cfg.logger, cfg.metrics, cfg.file.inspectOptions())
	report, err := inspector.Inspect(head)
	if err != nil {
		return nil, err
	}
	if report.Skipped != nil {
		level.Warn(cfg.logger).Log("msg", "modules skipped", "err", report.Skipped)
	}
	return report, nil
}
