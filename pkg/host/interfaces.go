package host

import "context"

// Host is the capability surface palprune needs from the application that owns
// the project model. Implementations may live in-process or behind a go-plugin
// RPC connection, so every call takes a context.
type Host interface {
	// Info returns metadata about the host implementation.
	Info(ctx context.Context) (Info, error)

	// DrawingNodes lists every node that can produce drawing content.
	DrawingNodes(ctx context.Context) ([]NodeRef, error)

	// TimingMode reports whether the node is timed by element or by name.
	TimingMode(ctx context.Context, node NodeRef) (TimingMode, error)

	// LinkedColumn returns the column driving the node for the given mode.
	// ok is false when no column is linked.
	LinkedColumn(ctx context.Context, node NodeRef, mode TimingMode) (col ColumnRef, ok bool, err error)

	// ColumnValue returns the content key a column holds at frame (1-based).
	ColumnValue(ctx context.Context, col ColumnRef, frame int) (ContentKey, error)

	// FrameCount returns the number of frames in the project.
	FrameCount(ctx context.Context) (int, error)

	// ContentColors returns the colors painted in the content the node shows at frame.
	ContentColors(ctx context.Context, node NodeRef, frame int) ([]ColorID, error)

	// Palettes returns the scene palette list in index order.
	Palettes(ctx context.Context) ([]PaletteRef, error)

	// CurrentPalette returns the palette currently targeted by the user.
	// ok is false when no palette is targeted.
	CurrentPalette(ctx context.Context) (ref PaletteRef, ok bool, err error)

	// PaletteColors returns the palette's colors in storage order.
	PaletteColors(ctx context.Context, palette PaletteID) ([]ColorID, error)

	// RemoveColor removes a single color from a palette.
	RemoveColor(ctx context.Context, palette PaletteID, color ColorID) error

	// PaletteColorCount returns the number of colors left in a palette.
	PaletteColorCount(ctx context.Context, palette PaletteID) (int, error)

	// DeletePalette removes the palette from the scene palette list and deletes
	// its backing store. The on-disk deletion is not undoable.
	DeletePalette(ctx context.Context, palette PaletteID) error

	// BeginTransaction opens an undo group.
	BeginTransaction(ctx context.Context, label string) error

	// EndTransaction closes the undo group opened by BeginTransaction.
	EndTransaction(ctx context.Context) error
}
