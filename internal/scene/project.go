// Package scene implements host.Host over a scene description and palette
// files on disk, so palettes can be pruned without the animation application
// running.
//
// A scene document (YAML, or JSON by extension, optionally xz-compressed)
// lists the drawing nodes, their timing columns, the drawings they can show
// and the palette files that make up the scene palette list.
package scene

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/palprune/internal/version"
	"github.com/jmylchreest/palprune/pkg/host"
)

var (
	// ErrUnreadableContent is returned when a frame shows a drawing the scene has no record of.
	ErrUnreadableContent = errors.New("drawing content cannot be read")

	// ErrPaletteLocked is returned when mutating a locked palette.
	ErrPaletteLocked = errors.New("palette is locked")

	// ErrColorNotFound is returned when removing a color a palette does not hold.
	ErrColorNotFound = errors.New("color not found in palette")

	// ErrDuplicateColor is returned when a palette file lists a color identifier twice.
	ErrDuplicateColor = errors.New("duplicate color in palette")

	// ErrUnknownPalette is returned for a palette identifier not in the palette list.
	ErrUnknownPalette = errors.New("unknown palette")

	// ErrUnknownNode is returned for a node name the scene does not define.
	ErrUnknownNode = errors.New("unknown node")

	// ErrTransactionActive is returned when a transaction is already open.
	ErrTransactionActive = errors.New("transaction already open")

	// ErrNoTransaction is returned when closing or undoing without a transaction.
	ErrNoTransaction = errors.New("no transaction")
)

type node struct {
	spec    NodeSpec
	mode    host.TimingMode
	element host.ColumnRef
	timing  host.ColumnRef
}

type palette struct {
	id    host.PaletteID
	ref   string // path relative to the scene directory
	path  string
	data  PaletteFile
	dirty bool
}

func (p *palette) hostRef() host.PaletteRef {
	return host.PaletteRef{ID: p.id, Name: p.data.Name, Path: p.path}
}

func (p *palette) clone() *palette {
	c := *p
	c.data = p.data.clone()
	return &c
}

// snapshot is the palette state captured when a transaction opens.
type snapshot struct {
	label    string
	palettes []*palette
	current  host.PaletteID
}

// Project is a file-backed scene. It is safe for concurrent use.
type Project struct {
	mu sync.Mutex

	path    string
	dir     string
	doc     *Document
	nodes   map[host.NodeRef]*node
	order   []host.NodeRef
	columns map[host.ColumnRef][]host.ContentKey

	palettes []*palette
	current  host.PaletteID
	deleted  []string

	open    *snapshot
	journal []snapshot
	dirty   bool

	logger hclog.Logger
}

var _ host.Host = (*Project)(nil)

// Option configures a Project.
type Option func(*Project)

// WithLogger sets the project logger.
func WithLogger(l hclog.Logger) Option {
	return func(p *Project) { p.logger = l }
}

// Open loads the scene document at path and every palette file it lists.
func Open(path string, opts ...Option) (*Project, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}

	var doc Document
	if err := decode(path, data, &doc); err != nil {
		return nil, err
	}

	p := &Project{
		path:    path,
		dir:     filepath.Dir(path),
		doc:     &doc,
		nodes:   make(map[host.NodeRef]*node),
		columns: make(map[host.ColumnRef][]host.ContentKey),
		logger:  hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.load(); err != nil {
		return nil, err
	}

	p.logger.Debug("opened scene", "path", path, "nodes", len(p.order), "palettes", len(p.palettes),
		"frames", doc.Frames)
	return p, nil
}

func (p *Project) load() error {
	if p.doc.Frames < 0 {
		return fmt.Errorf("invalid frame count %d", p.doc.Frames)
	}

	for name, col := range p.doc.Columns {
		keys := make([]host.ContentKey, len(col.Values))
		for i, v := range col.Values {
			keys[i] = host.ContentKey(v)
		}
		p.columns[host.ColumnRef(name)] = keys
	}

	for _, spec := range p.doc.Nodes {
		ref := host.NodeRef(spec.Name)
		if spec.Name == "" {
			return fmt.Errorf("node without a name")
		}
		if _, dup := p.nodes[ref]; dup {
			return fmt.Errorf("duplicate node %q", spec.Name)
		}
		mode, err := host.ParseTimingMode(spec.Timing)
		if err != nil {
			return fmt.Errorf("node %q: %w", spec.Name, err)
		}
		p.nodes[ref] = &node{
			spec:    spec,
			mode:    mode,
			element: host.ColumnRef(spec.ElementColumn),
			timing:  host.ColumnRef(spec.TimingColumn),
		}
		p.order = append(p.order, ref)
	}

	seen := make(map[host.PaletteID]bool)
	for _, entry := range p.doc.Palettes {
		pal, err := p.loadPalette(entry)
		if err != nil {
			return err
		}
		if seen[pal.id] {
			return fmt.Errorf("duplicate palette id %q", pal.id)
		}
		seen[pal.id] = true
		p.palettes = append(p.palettes, pal)
	}

	if cur := p.doc.CurrentPalette; cur != "" {
		if pal := p.find(host.PaletteID(cur)); pal != nil {
			p.current = pal.id
		} else {
			p.logger.Warn("current palette not in palette list", "palette", cur)
		}
	}

	return nil
}

func (p *Project) loadPalette(entry PaletteEntry) (*palette, error) {
	full, err := resolvePath(p.dir, entry.File)
	if err != nil {
		return nil, err
	}

	data, err := readFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read palette: %w", err)
	}

	var pf PaletteFile
	if err := decode(full, data, &pf); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(pf.Colors))
	for _, sw := range pf.Colors {
		if sw.ID == "" {
			return nil, fmt.Errorf("palette %s: color without an id", entry.File)
		}
		if seen[sw.ID] {
			return nil, fmt.Errorf("%w: %s in %s", ErrDuplicateColor, sw.ID, entry.File)
		}
		seen[sw.ID] = true
	}

	id := host.PaletteID(entry.ID)
	if id == "" {
		base := filepath.Base(entry.File)
		id = host.PaletteID(strings.TrimSuffix(base, filepath.Ext(base)))
	}

	return &palette{id: id, ref: entry.File, path: full, data: pf}, nil
}

// Path returns the scene document path.
func (p *Project) Path() string {
	return p.path
}

// Name returns the scene name.
func (p *Project) Name() string {
	return p.doc.Name
}

// DeletedFiles returns the palette files removed from disk since the project was opened.
func (p *Project) DeletedFiles() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.deleted)
}

// SelectPalette makes the palette with the given identifier or name current.
func (p *Project) SelectPalette(idOrName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pal := p.find(host.PaletteID(idOrName)); pal != nil {
		p.current = pal.id
		return nil
	}
	for _, pal := range p.palettes {
		if pal.data.Name == idOrName {
			p.current = pal.id
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownPalette, idOrName)
}

// Info implements host.Host.
func (p *Project) Info(context.Context) (host.Info, error) {
	return host.Info{
		Name:            "palprune-scene",
		Version:         version.Short(),
		ProtocolVersion: host.ProtocolVersion,
		Description:     "file-backed scene " + p.doc.Name,
	}, nil
}

// DrawingNodes implements host.Host.
func (p *Project) DrawingNodes(context.Context) ([]host.NodeRef, error) {
	return slices.Clone(p.order), nil
}

// TimingMode implements host.Host.
func (p *Project) TimingMode(_ context.Context, ref host.NodeRef) (host.TimingMode, error) {
	n, ok := p.nodes[ref]
	if !ok {
		return host.ByElement, fmt.Errorf("%w: %s", ErrUnknownNode, ref)
	}
	return n.mode, nil
}

// LinkedColumn implements host.Host. A column name the scene does not define
// counts as unlinked.
func (p *Project) LinkedColumn(_ context.Context, ref host.NodeRef, mode host.TimingMode) (host.ColumnRef, bool, error) {
	n, ok := p.nodes[ref]
	if !ok {
		return "", false, fmt.Errorf("%w: %s", ErrUnknownNode, ref)
	}

	col := n.timing
	if mode == host.ByElement {
		col = n.element
	}
	if col == "" {
		return "", false, nil
	}
	if _, defined := p.columns[col]; !defined {
		return "", false, nil
	}
	return col, true, nil
}

// ColumnValue implements host.Host.
func (p *Project) ColumnValue(_ context.Context, col host.ColumnRef, frame int) (host.ContentKey, error) {
	values, ok := p.columns[col]
	if !ok {
		return "", fmt.Errorf("unknown column %s", col)
	}
	if frame < 1 || frame > p.doc.Frames {
		return "", fmt.Errorf("frame %d out of range 1..%d", frame, p.doc.Frames)
	}
	if frame > len(values) {
		return "", nil
	}
	return values[frame-1], nil
}

// FrameCount implements host.Host.
func (p *Project) FrameCount(context.Context) (int, error) {
	return p.doc.Frames, nil
}

// ContentColors implements host.Host. An empty cel paints nothing; a content
// key with no drawing record is unreadable.
func (p *Project) ContentColors(ctx context.Context, ref host.NodeRef, frame int) ([]host.ColorID, error) {
	n, ok := p.nodes[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, ref)
	}

	col, linked, err := p.LinkedColumn(ctx, ref, n.mode)
	if err != nil || !linked {
		return nil, err
	}
	key, err := p.ColumnValue(ctx, col, frame)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, nil
	}

	ids, ok := n.spec.Drawings[string(key)]
	if !ok {
		return nil, fmt.Errorf("%w: node %s drawing %q", ErrUnreadableContent, ref, key)
	}

	colors := make([]host.ColorID, len(ids))
	for i, id := range ids {
		colors[i] = host.ColorID(id)
	}
	return colors, nil
}

// Palettes implements host.Host.
func (p *Project) Palettes(context.Context) ([]host.PaletteRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	refs := make([]host.PaletteRef, len(p.palettes))
	for i, pal := range p.palettes {
		refs[i] = pal.hostRef()
	}
	return refs, nil
}

// CurrentPalette implements host.Host.
func (p *Project) CurrentPalette(context.Context) (host.PaletteRef, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pal := p.find(p.current)
	if pal == nil {
		return host.PaletteRef{}, false, nil
	}
	return pal.hostRef(), true, nil
}

// PaletteColors implements host.Host.
func (p *Project) PaletteColors(_ context.Context, id host.PaletteID) ([]host.ColorID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pal := p.find(id)
	if pal == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPalette, id)
	}

	colors := make([]host.ColorID, len(pal.data.Colors))
	for i, sw := range pal.data.Colors {
		colors[i] = host.ColorID(sw.ID)
	}
	return colors, nil
}

// Swatches returns a copy of a palette's colors with their names and values.
func (p *Project) Swatches(id host.PaletteID) ([]Swatch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pal := p.find(id)
	if pal == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPalette, id)
	}
	return slices.Clone(pal.data.Colors), nil
}

// RemoveColor implements host.Host.
func (p *Project) RemoveColor(_ context.Context, id host.PaletteID, color host.ColorID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pal := p.find(id)
	if pal == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPalette, id)
	}
	if pal.data.Locked {
		return fmt.Errorf("%w: %s", ErrPaletteLocked, pal.data.Name)
	}

	idx := slices.IndexFunc(pal.data.Colors, func(sw Swatch) bool { return sw.ID == string(color) })
	if idx < 0 {
		return fmt.Errorf("%w: %s in %s", ErrColorNotFound, color, pal.data.Name)
	}

	pal.data.Colors = slices.Delete(pal.data.Colors, idx, idx+1)
	pal.dirty = true
	p.dirty = true
	return nil
}

// PaletteColorCount implements host.Host.
func (p *Project) PaletteColorCount(_ context.Context, id host.PaletteID) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pal := p.find(id)
	if pal == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPalette, id)
	}
	return len(pal.data.Colors), nil
}

// DeletePalette implements host.Host. The palette file is removed from disk
// immediately; Undo restores the palette in memory only.
func (p *Project) DeletePalette(_ context.Context, id host.PaletteID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := slices.IndexFunc(p.palettes, func(pal *palette) bool { return pal.id == id })
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPalette, id)
	}
	pal := p.palettes[idx]
	if pal.data.Locked {
		return fmt.Errorf("%w: %s", ErrPaletteLocked, pal.data.Name)
	}

	if err := os.Remove(pal.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete palette file: %w", err)
	}

	p.palettes = slices.Delete(p.palettes, idx, idx+1)
	p.deleted = append(p.deleted, pal.path)
	if p.current == id {
		p.current = ""
	}
	p.dirty = true

	p.logger.Debug("deleted palette", "palette", id, "file", pal.path)
	return nil
}

// BeginTransaction implements host.Host by capturing the palette state.
func (p *Project) BeginTransaction(_ context.Context, label string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open != nil {
		return fmt.Errorf("%w: %s", ErrTransactionActive, p.open.label)
	}

	snap := &snapshot{label: label, current: p.current, palettes: make([]*palette, len(p.palettes))}
	for i, pal := range p.palettes {
		snap.palettes[i] = pal.clone()
	}
	p.open = snap
	return nil
}

// EndTransaction implements host.Host. It records the undo step and saves the scene.
func (p *Project) EndTransaction(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open == nil {
		return ErrNoTransaction
	}
	p.journal = append(p.journal, *p.open)
	p.open = nil

	return p.save()
}

// Undo restores the palette state from before the last committed transaction
// and returns its label. Palette files already deleted from disk are written
// back on the next Save.
func (p *Project) Undo() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open != nil {
		return "", fmt.Errorf("%w: %s", ErrTransactionActive, p.open.label)
	}
	if len(p.journal) == 0 {
		return "", ErrNoTransaction
	}

	last := p.journal[len(p.journal)-1]
	p.journal = p.journal[:len(p.journal)-1]

	p.palettes = last.palettes
	for _, pal := range p.palettes {
		pal.dirty = true
	}
	p.current = last.current
	p.dirty = true
	return last.label, nil
}

// Save writes modified palette files and the scene document.
func (p *Project) Save() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.save()
}

func (p *Project) save() error {
	if !p.dirty {
		return nil
	}

	entries := make([]PaletteEntry, 0, len(p.palettes))
	for _, pal := range p.palettes {
		if pal.dirty {
			data, err := encode(pal.path, pal.data)
			if err != nil {
				return fmt.Errorf("failed to marshal palette %s: %w", pal.id, err)
			}
			if err := writeFile(pal.path, data); err != nil {
				return fmt.Errorf("failed to write palette %s: %w", pal.id, err)
			}
			pal.dirty = false
		}
		entries = append(entries, PaletteEntry{ID: string(pal.id), File: pal.ref})
	}

	p.doc.Palettes = entries
	p.doc.CurrentPalette = string(p.current)

	data, err := encode(p.path, p.doc)
	if err != nil {
		return fmt.Errorf("failed to marshal scene: %w", err)
	}
	if err := writeFile(p.path, data); err != nil {
		return fmt.Errorf("failed to write scene: %w", err)
	}

	p.dirty = false
	p.logger.Debug("saved scene", "path", p.path, "palettes", len(entries))
	return nil
}

// find returns the palette with the given identifier. The caller holds mu.
func (p *Project) find(id host.PaletteID) *palette {
	if id == "" {
		return nil
	}
	for _, pal := range p.palettes {
		if pal.id == id {
			return pal
		}
	}
	return nil
}
