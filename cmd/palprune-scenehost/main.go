// palprune-scenehost serves a file-backed scene to palprune over go-plugin.
//
// Usage:
//
//	palprune-scenehost --host-info            print host info as JSON
//	palprune --host-plugin ./palprune-scenehost --scene scene.yaml all
//
// The scene path is the first argument, or PALPRUNE_SCENE when no argument
// is given.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/jmylchreest/palprune/internal/executor"
	"github.com/jmylchreest/palprune/internal/scene"
	"github.com/jmylchreest/palprune/internal/version"
	"github.com/jmylchreest/palprune/pkg/host"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == executor.InfoFlag {
		info := host.Info{
			Name:            "palprune-scene",
			Version:         version.Short(),
			ProtocolVersion: host.ProtocolVersion,
			Description:     "File-backed scene host",
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(info); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding host info: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// go-plugin reads JSON log lines from stderr and re-emits them in the client.
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "scenehost",
		Output:     os.Stderr,
		Level:      hclog.LevelFromString(os.Getenv("PALPRUNE_LOG_LEVEL")),
		JSONFormat: true,
	})

	path := os.Getenv("PALPRUNE_SCENE")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: no scene given (pass a path or set PALPRUNE_SCENE)")
		os.Exit(1)
	}

	project, err := scene.Open(path, scene.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	info, _ := project.Info(context.Background())
	logger.Info("serving scene", "scene", project.Name(), "path", path, "protocol", info.ProtocolVersion)

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: host.Handshake,
		Plugins:         host.PluginMap(project),
		Logger:          logger,
	})
}
