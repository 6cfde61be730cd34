package executor

import (
	"context"
	"io"
)

// mockRunner is a ProcessRunner returning canned output.
type mockRunner struct {
	stdout []byte
	stderr []byte
	err    error
	block  bool

	calls    int
	lastPath string
	lastArgs []string
}

func (m *mockRunner) Run(ctx context.Context, path string, args []string, _ io.Reader) ([]byte, []byte, error) {
	m.calls++
	m.lastPath = path
	m.lastArgs = args

	if m.block {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	return m.stdout, m.stderr, m.err
}
