package elftest

import (
	"strings"
	"testing"

	"github.com/go-kit/log"
)

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

func TestLogger(t testing.TB) log.Logger {
	return log.NewLogfmtLogger(log.NewSyncWriter(testWriter{t}))
}
