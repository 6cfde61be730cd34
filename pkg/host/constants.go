package host

import (
	"github.com/hashicorp/go-plugin"
)

const (
	// ProtocolVersion defines the current host API version.
	// Format: MAJOR.MINOR.PATCH.
	// - Increment MAJOR for breaking changes (incompatible API changes).
	// - Increment MINOR for backward-compatible additions.
	// - Increment PATCH for backward-compatible bug fixes.
	ProtocolVersion = "1.0.0"

	// MinCompatibleVersion is the oldest host API version palprune can work with.
	MinCompatibleVersion = "1.0.0"

	// PluginName is the name the host bridge is dispensed under.
	PluginName = "host"
)

// Handshake is the handshake configuration for go-plugin protocol.
// Only host bridges built against the same major API version can connect.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "PALPRUNE_HOST",
	MagicCookieValue: "palprune_scene_host",
}

// PluginMap returns the go-plugin plugin set served or consumed by palprune.
// impl may be nil on the client side.
func PluginMap(impl Host) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginName: &HostRPC{Impl: impl},
	}
}
