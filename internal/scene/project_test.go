package scene

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jmylchreest/palprune/pkg/host"
)

const testScene = `name: shot_010
frames: 4
current_palette: props
nodes:
  - name: Top/Char
    timing: element
    element_column: char
    drawings:
      "1": [skin, hair]
      "2": [skin]
  - name: Top/BG
    timing: name
    element_column: bg_elem
    timing_column: bg_timing
    drawings:
      sky: [blue]
  - name: Top/Empty
columns:
  char:
    values: ["1", "1", "2"]
  bg_elem:
    values: [unused]
  bg_timing:
    values: [sky, sky, sky, missing]
palettes:
  - id: chars
    file: palettes/chars.plt
  - file: palettes/props.plt
`

const charsPalette = `name: Characters
colors:
  - id: skin
    name: Skin
    rgba: "#f0c8a0ff"
  - id: hair
    name: Hair
    rgba: "#402010ff"
  - id: eyes
    name: Eyes
    rgba: "#2060c0ff"
`

const propsPalette = `name: Props
colors:
  - id: crate
    rgba: "#806040ff"
`

// writeScene lays out a scene directory and returns the scene document path.
func writeScene(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	return filepath.Join(dir, "scene.yaml")
}

func defaultScene(t *testing.T) string {
	t.Helper()
	return writeScene(t, map[string]string{
		"scene.yaml":         testScene,
		"palettes/chars.plt": charsPalette,
		"palettes/props.plt": propsPalette,
	})
}

func openScene(t *testing.T, path string) *Project {
	t.Helper()
	p, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return p
}

func TestOpen(t *testing.T) {
	p := openScene(t, defaultScene(t))
	ctx := context.Background()

	if p.Name() != "shot_010" {
		t.Errorf("Name() = %q", p.Name())
	}

	nodes, _ := p.DrawingNodes(ctx)
	if !reflect.DeepEqual(nodes, []host.NodeRef{"Top/Char", "Top/BG", "Top/Empty"}) {
		t.Errorf("DrawingNodes() = %v", nodes)
	}

	palettes, _ := p.Palettes(ctx)
	if len(palettes) != 2 || palettes[0].ID != "chars" || palettes[1].ID != "props" {
		t.Fatalf("Palettes() = %v", palettes)
	}
	if palettes[0].Name != "Characters" {
		t.Errorf("palette name = %q", palettes[0].Name)
	}

	cur, ok, _ := p.CurrentPalette(ctx)
	if !ok || cur.ID != "props" {
		t.Errorf("CurrentPalette() = (%v, %v)", cur, ok)
	}

	colors, _ := p.PaletteColors(ctx, "chars")
	if !reflect.DeepEqual(colors, []host.ColorID{"skin", "hair", "eyes"}) {
		t.Errorf("PaletteColors() = %v", colors)
	}
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "missing palette file",
			files:   map[string]string{"scene.yaml": "frames: 1\npalettes:\n  - file: gone.plt\n"},
			wantErr: "failed to read palette",
		},
		{
			name:    "escaping palette path",
			files:   map[string]string{"scene.yaml": "frames: 1\npalettes:\n  - file: ../outside.plt\n"},
			wantErr: "escapes the scene directory",
		},
		{
			name:    "bad timing mode",
			files:   map[string]string{"scene.yaml": "frames: 1\nnodes:\n  - name: a\n    timing: sideways\n"},
			wantErr: "invalid timing mode",
		},
		{
			name:    "duplicate node",
			files:   map[string]string{"scene.yaml": "frames: 1\nnodes:\n  - name: a\n  - name: a\n"},
			wantErr: "duplicate node",
		},
		{
			name:    "negative frames",
			files:   map[string]string{"scene.yaml": "frames: -2\n"},
			wantErr: "invalid frame count",
		},
		{
			name: "duplicate color",
			files: map[string]string{
				"scene.yaml": "frames: 1\npalettes:\n  - file: p.plt\n",
				"p.plt":      "name: P\ncolors:\n  - id: a\n  - id: x\n  - id: x\n",
			},
			wantErr: "duplicate color in palette: x in p.plt",
		},
		{
			name: "color without id",
			files: map[string]string{
				"scene.yaml": "frames: 1\npalettes:\n  - file: p.plt\n",
				"p.plt":      "name: P\ncolors:\n  - name: Nameless\n",
			},
			wantErr: "color without an id",
		},
		{
			name: "duplicate palette",
			files: map[string]string{
				"scene.yaml": "frames: 1\npalettes:\n  - {id: x, file: a.plt}\n  - {id: x, file: b.plt}\n",
				"a.plt":      "name: A\ncolors: []\n",
				"b.plt":      "name: B\ncolors: []\n",
			},
			wantErr: "duplicate palette id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(writeScene(t, tt.files))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Open() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestColumnsAndContent(t *testing.T) {
	p := openScene(t, defaultScene(t))
	ctx := context.Background()

	mode, _ := p.TimingMode(ctx, "Top/BG")
	if mode != host.ByName {
		t.Errorf("TimingMode(Top/BG) = %v", mode)
	}

	col, ok, err := p.LinkedColumn(ctx, "Top/BG", host.ByName)
	if err != nil || !ok || col != "bg_timing" {
		t.Errorf("LinkedColumn() = (%q, %v, %v)", col, ok, err)
	}
	if _, ok, _ := p.LinkedColumn(ctx, "Top/Empty", host.ByElement); ok {
		t.Error("node without columns should be unlinked")
	}

	key, err := p.ColumnValue(ctx, "char", 4)
	if err != nil || key != "" {
		t.Errorf("ColumnValue past defined values = (%q, %v), want empty cel", key, err)
	}
	if _, err := p.ColumnValue(ctx, "char", 5); err == nil {
		t.Error("ColumnValue past the frame range should fail")
	}

	colors, err := p.ContentColors(ctx, "Top/Char", 1)
	if err != nil || !reflect.DeepEqual(colors, []host.ColorID{"skin", "hair"}) {
		t.Errorf("ContentColors() = (%v, %v)", colors, err)
	}

	colors, err = p.ContentColors(ctx, "Top/Char", 4)
	if err != nil || len(colors) != 0 {
		t.Errorf("ContentColors() on empty cel = (%v, %v)", colors, err)
	}

	if _, err := p.ContentColors(ctx, "Top/BG", 4); !errors.Is(err, ErrUnreadableContent) {
		t.Errorf("ContentColors() error = %v, want ErrUnreadableContent", err)
	}

	if _, err := p.TimingMode(ctx, "nope"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("TimingMode() error = %v, want ErrUnknownNode", err)
	}
}

func TestRemoveAndDelete(t *testing.T) {
	path := defaultScene(t)
	p := openScene(t, path)
	ctx := context.Background()

	if err := p.RemoveColor(ctx, "chars", "eyes"); err != nil {
		t.Fatalf("RemoveColor() error = %v", err)
	}
	if err := p.RemoveColor(ctx, "chars", "eyes"); !errors.Is(err, ErrColorNotFound) {
		t.Errorf("RemoveColor() twice error = %v, want ErrColorNotFound", err)
	}
	if n, _ := p.PaletteColorCount(ctx, "chars"); n != 2 {
		t.Errorf("PaletteColorCount() = %d, want 2", n)
	}

	propsFile := filepath.Join(filepath.Dir(path), "palettes", "props.plt")
	if err := p.DeletePalette(ctx, "props"); err != nil {
		t.Fatalf("DeletePalette() error = %v", err)
	}
	if _, err := os.Stat(propsFile); !os.IsNotExist(err) {
		t.Error("palette file should be deleted from disk")
	}
	if _, ok, _ := p.CurrentPalette(ctx); ok {
		t.Error("deleting the current palette should clear the selection")
	}
	if got := p.DeletedFiles(); len(got) != 1 || got[0] != propsFile {
		t.Errorf("DeletedFiles() = %v", got)
	}
	if err := p.DeletePalette(ctx, "props"); !errors.Is(err, ErrUnknownPalette) {
		t.Errorf("DeletePalette() twice error = %v, want ErrUnknownPalette", err)
	}

	if err := p.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reopened := openScene(t, path)
	palettes, _ := reopened.Palettes(ctx)
	if len(palettes) != 1 || palettes[0].ID != "chars" {
		t.Errorf("reopened Palettes() = %v", palettes)
	}
	colors, _ := reopened.PaletteColors(ctx, "chars")
	if !reflect.DeepEqual(colors, []host.ColorID{"skin", "hair"}) {
		t.Errorf("reopened PaletteColors() = %v", colors)
	}
	swatches, _ := reopened.Swatches("chars")
	if swatches[0].RGBA != "#f0c8a0ff" || swatches[0].Name != "Skin" {
		t.Errorf("swatch metadata lost: %+v", swatches[0])
	}
}

func TestLockedPalette(t *testing.T) {
	path := writeScene(t, map[string]string{
		"scene.yaml": "frames: 1\npalettes:\n  - file: locked.plt\n",
		"locked.plt": "name: Locked\nlocked: true\ncolors:\n  - id: a\n",
	})
	p := openScene(t, path)
	ctx := context.Background()

	if err := p.RemoveColor(ctx, "locked", "a"); !errors.Is(err, ErrPaletteLocked) {
		t.Errorf("RemoveColor() error = %v, want ErrPaletteLocked", err)
	}
	if err := p.DeletePalette(ctx, "locked"); !errors.Is(err, ErrPaletteLocked) {
		t.Errorf("DeletePalette() error = %v, want ErrPaletteLocked", err)
	}
}

func TestSelectPalette(t *testing.T) {
	p := openScene(t, defaultScene(t))
	ctx := context.Background()

	if err := p.SelectPalette("Characters"); err != nil {
		t.Fatalf("SelectPalette(name) error = %v", err)
	}
	if cur, _, _ := p.CurrentPalette(ctx); cur.ID != "chars" {
		t.Errorf("CurrentPalette() = %v", cur)
	}
	if err := p.SelectPalette("props"); err != nil {
		t.Fatalf("SelectPalette(id) error = %v", err)
	}
	if err := p.SelectPalette("nope"); !errors.Is(err, ErrUnknownPalette) {
		t.Errorf("SelectPalette() error = %v, want ErrUnknownPalette", err)
	}
}

func TestSaveSkipsWhenClean(t *testing.T) {
	path := defaultScene(t)
	p := openScene(t, path)

	before, _ := os.ReadFile(path)
	if err := p.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Error("clean project should not rewrite the scene")
	}
}

func TestOpenRejectsDuplicateColors(t *testing.T) {
	path := writeScene(t, map[string]string{
		"scene.yaml": "frames: 1\npalettes:\n  - file: q.plt\n",
		"q.plt":      "name: Q\ncolors:\n  - id: y\n  - id: y\n",
	})

	if _, err := Open(path); !errors.Is(err, ErrDuplicateColor) {
		t.Errorf("Open() error = %v, want ErrDuplicateColor", err)
	}
}
