package prune

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jmylchreest/palprune/pkg/host"
)

var errLocked = errors.New("palette is locked")

type fakeNode struct {
	mode     host.TimingMode
	element  host.ColumnRef
	named    host.ColumnRef
	drawings map[host.ContentKey][]host.ColorID
}

type fakePalette struct {
	ref    host.PaletteRef
	colors []host.ColorID
	locked bool
}

// fakeHost is an in-memory host with index-addressed palette storage.
type fakeHost struct {
	frames   int
	order    []host.NodeRef
	nodes    map[host.NodeRef]*fakeNode
	columns  map[host.ColumnRef][]host.ContentKey
	palettes []*fakePalette
	current  host.PaletteID

	unreadable map[host.ContentKey]bool
	badFrames  map[host.ColumnRef]map[int]bool

	contentCalls map[host.NodeRef][]int
	removals     []string
	deletions    []host.PaletteID
	begun        []string
	ended        int
	open         bool
}

func newFakeHost(frames int) *fakeHost {
	return &fakeHost{
		frames:       frames,
		nodes:        make(map[host.NodeRef]*fakeNode),
		columns:      make(map[host.ColumnRef][]host.ContentKey),
		unreadable:   make(map[host.ContentKey]bool),
		badFrames:    make(map[host.ColumnRef]map[int]bool),
		contentCalls: make(map[host.NodeRef][]int),
	}
}

func (f *fakeHost) addNode(name host.NodeRef, mode host.TimingMode, col host.ColumnRef, values []host.ContentKey,
	drawings map[host.ContentKey][]host.ColorID) {
	n := &fakeNode{mode: mode, drawings: drawings}
	if mode == host.ByElement {
		n.element = col
	} else {
		n.named = col
	}
	if col != "" {
		f.columns[col] = values
	}
	f.order = append(f.order, name)
	f.nodes[name] = n
}

func (f *fakeHost) addPalette(id host.PaletteID, colors ...host.ColorID) *fakePalette {
	p := &fakePalette{
		ref:    host.PaletteRef{ID: id, Name: "pal-" + string(id), Path: string(id) + ".plt"},
		colors: slices.Clone(colors),
	}
	f.palettes = append(f.palettes, p)
	return p
}

func (f *fakeHost) palette(id host.PaletteID) (*fakePalette, int) {
	for i, p := range f.palettes {
		if p.ref.ID == id {
			return p, i
		}
	}
	return nil, -1
}

func (f *fakeHost) colorsOf(id host.PaletteID) []host.ColorID {
	p, _ := f.palette(id)
	if p == nil {
		return nil
	}
	return p.colors
}

func (f *fakeHost) Info(context.Context) (host.Info, error) {
	return host.Info{Name: "fake", ProtocolVersion: host.ProtocolVersion}, nil
}

func (f *fakeHost) DrawingNodes(context.Context) ([]host.NodeRef, error) {
	return f.order, nil
}

func (f *fakeHost) TimingMode(_ context.Context, node host.NodeRef) (host.TimingMode, error) {
	return f.nodes[node].mode, nil
}

func (f *fakeHost) LinkedColumn(_ context.Context, node host.NodeRef, mode host.TimingMode) (host.ColumnRef, bool, error) {
	n := f.nodes[node]
	col := n.named
	if mode == host.ByElement {
		col = n.element
	}
	return col, col != "", nil
}

func (f *fakeHost) ColumnValue(_ context.Context, col host.ColumnRef, frame int) (host.ContentKey, error) {
	if f.badFrames[col][frame] {
		return "", fmt.Errorf("column %s frame %d cannot be read", col, frame)
	}
	values := f.columns[col]
	if frame-1 < len(values) {
		return values[frame-1], nil
	}
	return "", nil
}

func (f *fakeHost) FrameCount(context.Context) (int, error) {
	return f.frames, nil
}

func (f *fakeHost) ContentColors(ctx context.Context, node host.NodeRef, frame int) ([]host.ColorID, error) {
	f.contentCalls[node] = append(f.contentCalls[node], frame)

	n := f.nodes[node]
	col, _, _ := f.LinkedColumn(ctx, node, n.mode)
	key, err := f.ColumnValue(ctx, col, frame)
	if err != nil {
		return nil, err
	}
	if f.unreadable[key] {
		return nil, fmt.Errorf("drawing %q cannot be read", key)
	}
	return n.drawings[key], nil
}

func (f *fakeHost) Palettes(context.Context) ([]host.PaletteRef, error) {
	refs := make([]host.PaletteRef, 0, len(f.palettes))
	for _, p := range f.palettes {
		refs = append(refs, p.ref)
	}
	return refs, nil
}

func (f *fakeHost) CurrentPalette(context.Context) (host.PaletteRef, bool, error) {
	p, _ := f.palette(f.current)
	if p == nil {
		return host.PaletteRef{}, false, nil
	}
	return p.ref, true, nil
}

func (f *fakeHost) PaletteColors(_ context.Context, id host.PaletteID) ([]host.ColorID, error) {
	p, _ := f.palette(id)
	if p == nil {
		return nil, fmt.Errorf("unknown palette %s", id)
	}
	return slices.Clone(p.colors), nil
}

func (f *fakeHost) RemoveColor(_ context.Context, id host.PaletteID, c host.ColorID) error {
	p, _ := f.palette(id)
	if p == nil {
		return fmt.Errorf("unknown palette %s", id)
	}
	if p.locked {
		return errLocked
	}
	idx := slices.Index(p.colors, c)
	if idx < 0 {
		return fmt.Errorf("color %s not in palette %s", c, id)
	}
	p.colors = slices.Delete(p.colors, idx, idx+1)
	f.removals = append(f.removals, string(id)+"/"+string(c))
	return nil
}

func (f *fakeHost) PaletteColorCount(_ context.Context, id host.PaletteID) (int, error) {
	p, _ := f.palette(id)
	if p == nil {
		return 0, fmt.Errorf("unknown palette %s", id)
	}
	return len(p.colors), nil
}

func (f *fakeHost) DeletePalette(_ context.Context, id host.PaletteID) error {
	p, idx := f.palette(id)
	if p == nil {
		return fmt.Errorf("unknown palette %s", id)
	}
	if p.locked {
		return errLocked
	}
	f.palettes = slices.Delete(f.palettes, idx, idx+1)
	f.deletions = append(f.deletions, id)
	return nil
}

func (f *fakeHost) BeginTransaction(_ context.Context, label string) error {
	if f.open {
		return errors.New("transaction already open")
	}
	f.open = true
	f.begun = append(f.begun, label)
	return nil
}

func (f *fakeHost) EndTransaction(context.Context) error {
	if !f.open {
		return errors.New("no transaction open")
	}
	f.open = false
	f.ended++
	return nil
}

// recordingConfirmer records prompts and answers with a fixed response.
type recordingConfirmer struct {
	answer  bool
	titles  []string
	message string
}

func (r *recordingConfirmer) Confirm(title, message string) (bool, error) {
	r.titles = append(r.titles, title)
	r.message = message
	return r.answer, nil
}
