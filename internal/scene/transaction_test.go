package scene

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jmylchreest/palprune/pkg/host"
)

func TestTransactionCommitSaves(t *testing.T) {
	path := defaultScene(t)
	p := openScene(t, path)
	ctx := context.Background()

	if err := p.BeginTransaction(ctx, "Remove Unused"); err != nil {
		t.Fatalf("BeginTransaction() error = %v", err)
	}
	if err := p.BeginTransaction(ctx, "nested"); !errors.Is(err, ErrTransactionActive) {
		t.Errorf("nested BeginTransaction() error = %v, want ErrTransactionActive", err)
	}
	if err := p.RemoveColor(ctx, "chars", "hair"); err != nil {
		t.Fatalf("RemoveColor() error = %v", err)
	}
	if err := p.EndTransaction(ctx); err != nil {
		t.Fatalf("EndTransaction() error = %v", err)
	}
	if err := p.EndTransaction(ctx); !errors.Is(err, ErrNoTransaction) {
		t.Errorf("second EndTransaction() error = %v, want ErrNoTransaction", err)
	}

	colors, _ := openScene(t, path).PaletteColors(ctx, "chars")
	if !reflect.DeepEqual(colors, []host.ColorID{"skin", "eyes"}) {
		t.Errorf("saved colors = %v", colors)
	}
}

func TestUndo(t *testing.T) {
	path := defaultScene(t)
	p := openScene(t, path)
	ctx := context.Background()

	if _, err := p.Undo(); !errors.Is(err, ErrNoTransaction) {
		t.Errorf("Undo() with empty journal error = %v", err)
	}

	_ = p.BeginTransaction(ctx, "Remove Unused")
	_ = p.RemoveColor(ctx, "props", "crate")
	_ = p.DeletePalette(ctx, "props")
	if err := p.EndTransaction(ctx); err != nil {
		t.Fatalf("EndTransaction() error = %v", err)
	}

	propsFile := filepath.Join(filepath.Dir(path), "palettes", "props.plt")
	if _, err := os.Stat(propsFile); !os.IsNotExist(err) {
		t.Fatal("palette file should be gone after commit")
	}

	label, err := p.Undo()
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if label != "Remove Unused" {
		t.Errorf("Undo() label = %q", label)
	}

	colors, err := p.PaletteColors(ctx, "props")
	if err != nil || !reflect.DeepEqual(colors, []host.ColorID{"crate"}) {
		t.Errorf("PaletteColors() after undo = (%v, %v)", colors, err)
	}
	if cur, ok, _ := p.CurrentPalette(ctx); !ok || cur.ID != "props" {
		t.Errorf("current palette after undo = (%v, %v)", cur, ok)
	}
	if _, err := os.Stat(propsFile); !os.IsNotExist(err) {
		t.Error("undo must not touch the disk until saved")
	}

	if err := p.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(propsFile); err != nil {
		t.Errorf("palette file should be rewritten on save: %v", err)
	}
}
