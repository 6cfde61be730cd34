// Package hostproc detects a running animation host so scene files are not
// edited underneath it.
package hostproc

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mitchellh/go-ps"
)

// DefaultNames are the executables of the host application family.
var DefaultNames = []string{"HarmonyPremium", "HarmonyAdvanced", "HarmonyEssentials", "Harmony"}

// ErrHostRunning is returned by Check when a host process is found.
var ErrHostRunning = errors.New("host application is running")

// Process is a running process that matched a host name.
type Process struct {
	PID  int
	Name string
}

// Lister returns the running processes.
type Lister func() ([]ps.Process, error)

// Guard looks for host processes by executable name.
type Guard struct {
	names []string
	list  Lister
}

// New returns a Guard for the given executable names, or DefaultNames when
// none are given.
func New(names ...string) *Guard {
	if len(names) == 0 {
		names = DefaultNames
	}
	return &Guard{names: slices.Clone(names), list: ps.Processes}
}

// WithLister replaces the process source.
func (g *Guard) WithLister(l Lister) *Guard {
	g.list = l
	return g
}

// Names returns the executable names the guard matches.
func (g *Guard) Names() []string {
	return slices.Clone(g.names)
}

// Find returns the running processes whose executable matches a host name.
// Matching ignores case and a trailing ".exe".
func (g *Guard) Find() ([]Process, error) {
	processes, err := g.list()
	if err != nil {
		return nil, fmt.Errorf("failed to get process list: %w", err)
	}

	var found []Process
	for _, p := range processes {
		exe := normalise(p.Executable())
		for _, name := range g.names {
			if exe == normalise(name) {
				found = append(found, Process{PID: p.Pid(), Name: p.Executable()})
				break
			}
		}
	}
	return found, nil
}

// Check returns ErrHostRunning, naming the processes, if any host is running.
func (g *Guard) Check() error {
	found, err := g.Find()
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return nil
	}

	desc := make([]string, len(found))
	for i, p := range found {
		desc[i] = fmt.Sprintf("%s (pid %d)", p.Name, p.PID)
	}
	return fmt.Errorf("%w: %s", ErrHostRunning, strings.Join(desc, ", "))
}

func normalise(name string) string {
	name = filepath.Base(name)
	if strings.EqualFold(filepath.Ext(name), ".exe") {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return strings.ToLower(name)
}
