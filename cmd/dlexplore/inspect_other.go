//go:build !linux

package main

import (
	"errors"

	"github.com/johannst/fun-with-elf/dynlink"
)

func inspectProcess() (*dynlink.Report, error) {
	return nil, errors.New("live process inspection is only supported on linux")
}
