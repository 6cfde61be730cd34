// Package executor launches an out-of-process host bridge and exposes it as a
// host.Host over go-plugin net/rpc.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/jmylchreest/palprune/internal/protocol"
	"github.com/jmylchreest/palprune/pkg/host"
)

// InfoFlag is the argument a host bridge answers with its host.Info as JSON.
const InfoFlag = "--host-info"

const probeTimeout = 5 * time.Second

// Executor owns a host bridge process.
type Executor struct {
	path    string
	args    []string
	verbose bool
	runner  ProcessRunner
	logger  hclog.Logger

	mu     sync.Mutex
	client *plugin.Client
	host   host.Host
}

// Option configures an Executor.
type Option func(*Executor)

// WithArgs passes extra arguments to the bridge when it is launched.
func WithArgs(args ...string) Option {
	return func(e *Executor) { e.args = args }
}

// WithVerbose forwards the bridge's own log output to stderr.
func WithVerbose(verbose bool) Option {
	return func(e *Executor) { e.verbose = verbose }
}

// WithRunner replaces the process runner used to probe the bridge.
func WithRunner(r ProcessRunner) Option {
	return func(e *Executor) { e.runner = r }
}

// WithLogger sets the executor logger.
func WithLogger(l hclog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New returns an Executor for the bridge binary at path. The bridge is not
// started until Host is called.
func New(path string, opts ...Option) (*Executor, error) {
	if path == "" {
		return nil, errors.New("host bridge path is empty")
	}

	e := &Executor{
		path:   path,
		runner: ExecRunner{},
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if _, isExec := e.runner.(ExecRunner); isExec {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("host bridge not found: %w", err)
		}
		if info.IsDir() || info.Mode()&0o111 == 0 {
			return nil, fmt.Errorf("host bridge %s is not executable", path)
		}
	}

	return e, nil
}

// Path returns the bridge binary path.
func (e *Executor) Path() string {
	return e.path
}

// Probe asks the bridge for its host.Info without starting a plugin session
// and checks that its API version is compatible.
func (e *Executor) Probe(ctx context.Context) (host.Info, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	stdout, stderr, err := e.runner.Run(ctx, e.path, []string{InfoFlag}, nil)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = err.Error()
		}
		return host.Info{}, fmt.Errorf("failed to query host bridge: %s", msg)
	}

	var info host.Info
	if err := json.Unmarshal(stdout, &info); err != nil {
		return host.Info{}, fmt.Errorf("failed to parse host bridge info: %w", err)
	}
	if _, err := protocol.IsCompatible(info.ProtocolVersion); err != nil {
		return info, err
	}
	return info, nil
}

// Host starts the bridge on first use and returns the dispensed host.
func (e *Executor) Host(ctx context.Context) (host.Host, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.host != nil {
		return e.host, nil
	}

	e.client = plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  host.Handshake,
		Plugins:          host.PluginMap(nil),
		Cmd:              exec.Command(e.path, e.args...), // #nosec G204 - bridge path comes from user configuration
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
		Logger:           e.pluginLogger(),
	})

	rpcClient, err := e.client.Client()
	if err != nil {
		e.kill()
		return nil, fmt.Errorf("failed to start host bridge: %w", err)
	}

	raw, err := rpcClient.Dispense(host.PluginName)
	if err != nil {
		e.kill()
		return nil, fmt.Errorf("failed to dispense host: %w", err)
	}

	h, ok := raw.(host.Host)
	if !ok {
		e.kill()
		return nil, fmt.Errorf("host bridge returned unexpected type %T", raw)
	}

	info, err := h.Info(ctx)
	if err != nil {
		e.kill()
		return nil, fmt.Errorf("failed to query host info: %w", err)
	}
	if _, err := protocol.IsCompatible(info.ProtocolVersion); err != nil {
		e.kill()
		return nil, err
	}

	e.logger.Debug("connected to host bridge", "path", e.path, "host", info.Name,
		"version", info.Version, "protocol", info.ProtocolVersion)
	e.host = h
	return h, nil
}

// Close stops the bridge process if it was started.
func (e *Executor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.kill()
}

func (e *Executor) kill() {
	if e.client != nil {
		e.client.Kill()
		e.client = nil
	}
	e.host = nil
}

func (e *Executor) pluginLogger() hclog.Logger {
	if e.verbose {
		return hclog.New(&hclog.LoggerOptions{
			Name:   "bridge",
			Output: os.Stderr,
			Level:  hclog.Debug,
		})
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "bridge",
		Output: io.Discard,
		Level:  hclog.Off,
	})
}
