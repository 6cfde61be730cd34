package host

import (
	"context"
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// HostRPC implements the go-plugin Plugin interface for host bridges.
type HostRPC struct {
	plugin.Plugin
	Impl Host
}

// Server returns an RPC server for this plugin.
func (p *HostRPC) Server(*plugin.MuxBroker) (any, error) {
	return &HostRPCServer{Impl: p.Impl}, nil
}

// Client returns an RPC client for this plugin.
func (p *HostRPC) Client(_ *plugin.MuxBroker, c *rpc.Client) (any, error) {
	return &HostRPCClient{client: c}, nil
}

// NodeArgs carries a node reference.
type NodeArgs struct {
	Node NodeRef
}

// LinkedColumnArgs carries the arguments of LinkedColumn.
type LinkedColumnArgs struct {
	Node NodeRef
	Mode TimingMode
}

// LinkedColumnReply carries the result of LinkedColumn.
type LinkedColumnReply struct {
	Column ColumnRef
	Found  bool
}

// ColumnValueArgs carries the arguments of ColumnValue.
type ColumnValueArgs struct {
	Column ColumnRef
	Frame  int
}

// ContentColorsArgs carries the arguments of ContentColors.
type ContentColorsArgs struct {
	Node  NodeRef
	Frame int
}

// CurrentPaletteReply carries the result of CurrentPalette.
type CurrentPaletteReply struct {
	Palette PaletteRef
	Found   bool
}

// PaletteArgs carries a palette identifier.
type PaletteArgs struct {
	Palette PaletteID
}

// RemoveColorArgs carries the arguments of RemoveColor.
type RemoveColorArgs struct {
	Palette PaletteID
	Color   ColorID
}

// HostRPCServer is the RPC server implementation for host bridges.
type HostRPCServer struct {
	Impl Host
}

// Info implements the RPC method for fetching host metadata.
func (s *HostRPCServer) Info(_ any, resp *Info) error {
	info, err := s.Impl.Info(context.Background())
	if err != nil {
		return err
	}
	*resp = info
	return nil
}

// DrawingNodes implements the RPC method for listing drawing nodes.
func (s *HostRPCServer) DrawingNodes(_ any, resp *[]NodeRef) error {
	nodes, err := s.Impl.DrawingNodes(context.Background())
	if err != nil {
		return err
	}
	*resp = nodes
	return nil
}

// TimingMode implements the RPC method for reading a node's timing mode.
func (s *HostRPCServer) TimingMode(args NodeArgs, resp *TimingMode) error {
	mode, err := s.Impl.TimingMode(context.Background(), args.Node)
	if err != nil {
		return err
	}
	*resp = mode
	return nil
}

// LinkedColumn implements the RPC method for resolving a node's column.
func (s *HostRPCServer) LinkedColumn(args LinkedColumnArgs, resp *LinkedColumnReply) error {
	col, ok, err := s.Impl.LinkedColumn(context.Background(), args.Node, args.Mode)
	if err != nil {
		return err
	}
	resp.Column = col
	resp.Found = ok
	return nil
}

// ColumnValue implements the RPC method for reading a column entry.
func (s *HostRPCServer) ColumnValue(args ColumnValueArgs, resp *ContentKey) error {
	key, err := s.Impl.ColumnValue(context.Background(), args.Column, args.Frame)
	if err != nil {
		return err
	}
	*resp = key
	return nil
}

// FrameCount implements the RPC method for reading the scene length.
func (s *HostRPCServer) FrameCount(_ any, resp *int) error {
	n, err := s.Impl.FrameCount(context.Background())
	if err != nil {
		return err
	}
	*resp = n
	return nil
}

// ContentColors implements the RPC method for reading painted colors.
func (s *HostRPCServer) ContentColors(args ContentColorsArgs, resp *[]ColorID) error {
	colors, err := s.Impl.ContentColors(context.Background(), args.Node, args.Frame)
	if err != nil {
		return err
	}
	*resp = colors
	return nil
}

// Palettes implements the RPC method for listing the scene palettes.
func (s *HostRPCServer) Palettes(_ any, resp *[]PaletteRef) error {
	palettes, err := s.Impl.Palettes(context.Background())
	if err != nil {
		return err
	}
	*resp = palettes
	return nil
}

// CurrentPalette implements the RPC method for reading the targeted palette.
func (s *HostRPCServer) CurrentPalette(_ any, resp *CurrentPaletteReply) error {
	ref, ok, err := s.Impl.CurrentPalette(context.Background())
	if err != nil {
		return err
	}
	resp.Palette = ref
	resp.Found = ok
	return nil
}

// PaletteColors implements the RPC method for listing a palette's colors.
func (s *HostRPCServer) PaletteColors(args PaletteArgs, resp *[]ColorID) error {
	colors, err := s.Impl.PaletteColors(context.Background(), args.Palette)
	if err != nil {
		return err
	}
	*resp = colors
	return nil
}

// RemoveColor implements the RPC method for removing a color.
func (s *HostRPCServer) RemoveColor(args RemoveColorArgs, resp *bool) error {
	if err := s.Impl.RemoveColor(context.Background(), args.Palette, args.Color); err != nil {
		return err
	}
	*resp = true
	return nil
}

// PaletteColorCount implements the RPC method for counting a palette's colors.
func (s *HostRPCServer) PaletteColorCount(args PaletteArgs, resp *int) error {
	n, err := s.Impl.PaletteColorCount(context.Background(), args.Palette)
	if err != nil {
		return err
	}
	*resp = n
	return nil
}

// DeletePalette implements the RPC method for deleting a palette.
func (s *HostRPCServer) DeletePalette(args PaletteArgs, resp *bool) error {
	if err := s.Impl.DeletePalette(context.Background(), args.Palette); err != nil {
		return err
	}
	*resp = true
	return nil
}

// BeginTransaction implements the RPC method for opening an undo group.
func (s *HostRPCServer) BeginTransaction(label string, resp *bool) error {
	if err := s.Impl.BeginTransaction(context.Background(), label); err != nil {
		return err
	}
	*resp = true
	return nil
}

// EndTransaction implements the RPC method for closing an undo group.
func (s *HostRPCServer) EndTransaction(_ any, resp *bool) error {
	if err := s.Impl.EndTransaction(context.Background()); err != nil {
		return err
	}
	*resp = true
	return nil
}

// HostRPCClient is the RPC client implementation of Host.
type HostRPCClient struct {
	client *rpc.Client
}

var _ Host = (*HostRPCClient)(nil)

// Info calls the remote Info method.
func (c *HostRPCClient) Info(_ context.Context) (Info, error) {
	var info Info
	err := c.call("Plugin.Info", new(any), &info)
	return info, err
}

// DrawingNodes calls the remote DrawingNodes method.
func (c *HostRPCClient) DrawingNodes(_ context.Context) ([]NodeRef, error) {
	var nodes []NodeRef
	err := c.call("Plugin.DrawingNodes", new(any), &nodes)
	return nodes, err
}

// TimingMode calls the remote TimingMode method.
func (c *HostRPCClient) TimingMode(_ context.Context, node NodeRef) (TimingMode, error) {
	var mode TimingMode
	err := c.call("Plugin.TimingMode", NodeArgs{Node: node}, &mode)
	return mode, err
}

// LinkedColumn calls the remote LinkedColumn method.
func (c *HostRPCClient) LinkedColumn(_ context.Context, node NodeRef, mode TimingMode) (ColumnRef, bool, error) {
	var resp LinkedColumnReply
	if err := c.call("Plugin.LinkedColumn", LinkedColumnArgs{Node: node, Mode: mode}, &resp); err != nil {
		return "", false, err
	}
	return resp.Column, resp.Found, nil
}

// ColumnValue calls the remote ColumnValue method.
func (c *HostRPCClient) ColumnValue(_ context.Context, col ColumnRef, frame int) (ContentKey, error) {
	var key ContentKey
	err := c.call("Plugin.ColumnValue", ColumnValueArgs{Column: col, Frame: frame}, &key)
	return key, err
}

// FrameCount calls the remote FrameCount method.
func (c *HostRPCClient) FrameCount(_ context.Context) (int, error) {
	var n int
	err := c.call("Plugin.FrameCount", new(any), &n)
	return n, err
}

// ContentColors calls the remote ContentColors method.
func (c *HostRPCClient) ContentColors(_ context.Context, node NodeRef, frame int) ([]ColorID, error) {
	var colors []ColorID
	err := c.call("Plugin.ContentColors", ContentColorsArgs{Node: node, Frame: frame}, &colors)
	return colors, err
}

// Palettes calls the remote Palettes method.
func (c *HostRPCClient) Palettes(_ context.Context) ([]PaletteRef, error) {
	var palettes []PaletteRef
	err := c.call("Plugin.Palettes", new(any), &palettes)
	return palettes, err
}

// CurrentPalette calls the remote CurrentPalette method.
func (c *HostRPCClient) CurrentPalette(_ context.Context) (PaletteRef, bool, error) {
	var resp CurrentPaletteReply
	if err := c.call("Plugin.CurrentPalette", new(any), &resp); err != nil {
		return PaletteRef{}, false, err
	}
	return resp.Palette, resp.Found, nil
}

// PaletteColors calls the remote PaletteColors method.
func (c *HostRPCClient) PaletteColors(_ context.Context, palette PaletteID) ([]ColorID, error) {
	var colors []ColorID
	err := c.call("Plugin.PaletteColors", PaletteArgs{Palette: palette}, &colors)
	return colors, err
}

// RemoveColor calls the remote RemoveColor method.
func (c *HostRPCClient) RemoveColor(_ context.Context, palette PaletteID, color ColorID) error {
	return c.call("Plugin.RemoveColor", RemoveColorArgs{Palette: palette, Color: color}, new(bool))
}

// PaletteColorCount calls the remote PaletteColorCount method.
func (c *HostRPCClient) PaletteColorCount(_ context.Context, palette PaletteID) (int, error) {
	var n int
	err := c.call("Plugin.PaletteColorCount", PaletteArgs{Palette: palette}, &n)
	return n, err
}

// DeletePalette calls the remote DeletePalette method.
func (c *HostRPCClient) DeletePalette(_ context.Context, palette PaletteID) error {
	return c.call("Plugin.DeletePalette", PaletteArgs{Palette: palette}, new(bool))
}

// BeginTransaction calls the remote BeginTransaction method.
func (c *HostRPCClient) BeginTransaction(_ context.Context, label string) error {
	return c.call("Plugin.BeginTransaction", label, new(bool))
}

// EndTransaction calls the remote EndTransaction method.
func (c *HostRPCClient) EndTransaction(_ context.Context) error {
	return c.call("Plugin.EndTransaction", new(any), new(bool))
}

// call invokes a remote method and converts server-side failures into RPCError.
func (c *HostRPCClient) call(method string, args, reply any) error {
	err := c.client.Call(method, args, reply)
	if err == nil {
		return nil
	}
	if serverErr, ok := err.(rpc.ServerError); ok {
		return &RPCError{Method: method, Message: string(serverErr)}
	}
	return err
}

// RPCError represents an error returned from the remote host.
type RPCError struct {
	Method  string
	Message string
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if e.Method == "" {
		return e.Message
	}
	return e.Method + ": " + e.Message
}
