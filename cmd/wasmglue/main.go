// Command wasmglue generates a typed host-language glue file for a
// compiled WebAssembly module from a YAML descriptor + module-metadata
// config file (see internal/descriptor).
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tetratelabs/wazero-bindgen/internal/descriptor"
	"github.com/tetratelabs/wazero-bindgen/internal/glue"
)

var (
	flagDebug      bool
	flagNodeJS     bool
	flagOut        string
	flagJavaScript bool
)

func main() {
	logger := logrus.New()

	root := &cobra.Command{
		Use:   "wasmglue <config.yaml>",
		Short: "generate typed glue for a compiled WebAssembly module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], logger)
		},
	}
	root.Flags().BoolVar(&flagDebug, "debug", false, "emit debug assertions and construction gates")
	root.Flags().BoolVar(&flagNodeJS, "nodejs", false, "target the Node.js string-transfer runtime variant")
	root.Flags().BoolVar(&flagJavaScript, "no-typescript", false, "omit the TypeScript interface declarations from the output")
	root.Flags().StringVar(&flagOut, "out", "", "output path (defaults to the config's out: field)")

	if err := root.Execute(); err != nil {
		logger.WithError(err).Error("wasmglue failed")
		os.Exit(1)
	}
}

func run(configPath string, logger *logrus.Logger) error {
	cfg, err := descriptor.Load(configPath)
	if err != nil {
		return err
	}

	debug := cfg.Debug || flagDebug
	nodejs := cfg.NodeJS || flagNodeJS
	out := cfg.Out
	if flagOut != "" {
		out = flagOut
	}

	prog, err := cfg.Program()
	if err != nil {
		return fmt.Errorf("wasmglue: %w", err)
	}

	emit := glue.EmitTypeScript
	if flagJavaScript {
		emit = glue.EmitJavaScript
	}

	asm := &glue.Assembler{Logger: logger, Debug: debug, NodeJS: nodejs, Emit: emit}

	logger.WithFields(logrus.Fields{
		"wasm":  cfg.Wasm,
		"out":   out,
		"debug": debug,
	}).Info("generating glue")

	src, err := asm.Assemble(prog, cfg.ModuleView(), cfg.NameMapper())
	if err != nil {
		return fmt.Errorf("wasmglue: %w", err)
	}

	if out == "" {
		_, err := os.Stdout.WriteString(src)
		return err
	}
	if err := os.WriteFile(out, []byte(src), 0o644); err != nil {
		return fmt.Errorf("wasmglue: write %s: %w", out, err)
	}
	logger.WithField("out", out).Info("glue written")
	return nil
}
