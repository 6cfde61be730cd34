package prune

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/palprune/pkg/host"
)

// Usage is the set of colors painted in the drawings shown anywhere in the project.
type Usage struct {
	Colors map[host.ColorID]struct{}

	// Nodes is the number of drawing nodes scanned.
	Nodes int

	// Contents is the number of distinct (node, content) pairs queried.
	Contents int

	// Unreadable lists content the host could not report colors for.
	Unreadable []UnreadableContent
}

// UnreadableContent records a per-item scan failure. Frame is zero when the
// failure happened before any frame was read.
type UnreadableContent struct {
	Node  host.NodeRef
	Frame int
	Key   host.ContentKey
	Err   error
}

// Has reports whether id is painted somewhere.
func (u *Usage) Has(id host.ColorID) bool {
	_, ok := u.Colors[id]
	return ok
}

// Sorted returns the used colors in lexical order.
func (u *Usage) Sorted() []host.ColorID {
	return slices.Sorted(maps.Keys(u.Colors))
}

// Complete reports whether every piece of content was read.
func (u *Usage) Complete() bool {
	return len(u.Unreadable) == 0
}

// sample is the first frame at which a column showed a given content key.
type sample struct {
	frame int
	key   host.ContentKey
}

// CollectUsage scans every drawing node across the project's frame range and
// returns the colors painted in the content they display. Each distinct
// content key is queried once per node, at the first frame it appears.
// Per-item read failures are recorded on the result and do not stop the scan.
func CollectUsage(ctx context.Context, h host.Host, logger hclog.Logger) (*Usage, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	nodes, err := h.DrawingNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list drawing nodes: %w", err)
	}

	frames, err := h.FrameCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame count: %w", err)
	}

	usage := &Usage{
		Colors: make(map[host.ColorID]struct{}),
		Nodes:  len(nodes),
	}

	if frames <= 0 {
		logger.Debug("project has no frames, nothing is in use")
		return usage, nil
	}

	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		col, ok, err := nodeColumn(ctx, h, node)
		if err != nil {
			usage.Unreadable = append(usage.Unreadable, UnreadableContent{Node: node, Err: err})
			logger.Warn("skipping node", "node", node, "error", err)
			continue
		}
		if !ok {
			logger.Debug("node has no linked column", "node", node)
			continue
		}

		samples := distinctSamples(ctx, h, node, col, frames, usage, logger)
		for _, s := range samples {
			colors, err := h.ContentColors(ctx, node, s.frame)
			if err != nil {
				usage.Unreadable = append(usage.Unreadable, UnreadableContent{
					Node: node, Frame: s.frame, Key: s.key, Err: err,
				})
				logger.Warn("unreadable content", "node", node, "frame", s.frame, "key", s.key, "error", err)
				continue
			}

			usage.Contents++
			for _, c := range colors {
				usage.Colors[c] = struct{}{}
			}
		}

		logger.Trace("scanned node", "node", node, "column", col, "contents", len(samples))
	}

	logger.Debug("usage collected", "nodes", usage.Nodes, "contents", usage.Contents,
		"colors", len(usage.Colors), "unreadable", len(usage.Unreadable))

	return usage, nil
}

// nodeColumn resolves the column driving a node's drawing for its timing mode.
func nodeColumn(ctx context.Context, h host.Host, node host.NodeRef) (host.ColumnRef, bool, error) {
	mode, err := h.TimingMode(ctx, node)
	if err != nil {
		return "", false, fmt.Errorf("failed to read timing mode: %w", err)
	}

	var col host.ColumnRef
	var ok bool
	switch mode {
	case host.ByElement, host.ByName:
		col, ok, err = h.LinkedColumn(ctx, node, mode)
	default:
		return "", false, fmt.Errorf("unsupported timing mode: %s", mode)
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve %s column: %w", mode.ColumnAttr(), err)
	}

	return col, ok, nil
}

// distinctSamples reads the column at every frame from 1 to frames and keeps
// the first frame for each distinct content key, in order of appearance.
// Column read failures are recorded once per node, at the first failing frame.
func distinctSamples(ctx context.Context, h host.Host, node host.NodeRef, col host.ColumnRef, frames int,
	usage *Usage, logger hclog.Logger) []sample {
	seen := make(map[host.ContentKey]struct{})
	var samples []sample

	failed := 0
	for frame := 1; frame <= frames; frame++ {
		key, err := h.ColumnValue(ctx, col, frame)
		if err != nil {
			if failed == 0 {
				usage.Unreadable = append(usage.Unreadable, UnreadableContent{Node: node, Frame: frame, Err: err})
				logger.Warn("unreadable column entry", "node", node, "column", col, "frame", frame, "error", err)
			}
			failed++
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		samples = append(samples, sample{frame: frame, key: key})
	}

	if failed > 1 {
		logger.Warn("column entries could not be read", "node", node, "column", col, "frames", failed)
	}
	return samples
}
