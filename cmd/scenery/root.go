package main

import (
	"github.com/spf13/cobra"

	"github.com/taigrr/scenery/pkg/loader"
	"github.com/taigrr/scenery/pkg/scene"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath     string
	logLevel       string
	noTriangulate  bool
	flipV          bool
	strictIndices  bool
	pbrtRootShapes bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "scenery",
		Short: "Load OBJ, glTF and PBRT scenes into one canonical model",
		Long: `scenery reads .obj, .gltf, .glb, .pbrt and .pbf files into a single scene
model of meshes, instances, Disney-style materials, textures and quad lights.`,
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "TOML file with loader options and log_level")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error (default warn)")
	pf.BoolVar(&g.noTriangulate, "no-triangulate", false, "reject OBJ polygons instead of fan-triangulating them")
	pf.BoolVar(&g.flipV, "flip-v", false, "flip glTF texture coordinate v")
	pf.BoolVar(&g.strictIndices, "strict-indices", false, "fail on glTF index counts that are not a multiple of 3")
	pf.BoolVar(&g.pbrtRootShapes, "pbrt-root-shapes", false, "convert PBRT shapes outside any object into a world mesh")

	root.AddCommand(
		newInfoCmd(g),
		newValidateCmd(g),
		newPreviewCmd(g),
		newConvertCmd(g),
	)
	return root
}

// resolve merges the config file with the flags set on the command line
// and installs the diagnostics logger.
func (g *globalFlags) resolve(cmd *cobra.Command) (config, error) {
	cfg, err := loadConfig(g.configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if flags.Changed("no-triangulate") {
		cfg.Options.Triangulate = !g.noTriangulate
	}
	if flags.Changed("flip-v") {
		cfg.Options.FlipV = g.flipV
	}
	if flags.Changed("strict-indices") {
		cfg.Options.StrictIndices = g.strictIndices
	}
	if flags.Changed("pbrt-root-shapes") {
		cfg.Options.PBRTRootShapes = g.pbrtRootShapes
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return cfg, err
	}
	loader.SetLogger(logger)
	return cfg, nil
}

// newLoader builds a loader configured from the config file and flags.
func (g *globalFlags) newLoader(cmd *cobra.Command) (*loader.Loader, error) {
	cfg, err := g.resolve(cmd)
	if err != nil {
		return nil, err
	}
	l := loader.NewLoader()
	l.Options = cfg.Options
	return l, nil
}

// load is a convenience for commands that take a single scene argument.
func (g *globalFlags) load(cmd *cobra.Command, path string) (*scene.Scene, *loader.Loader, error) {
	l, err := g.newLoader(cmd)
	if err != nil {
		return nil, nil, err
	}
	s, err := l.Load(path)
	return s, l, err
}
