// Package main implements the goinvaders emulator executable.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"goinvaders/internal/app"
	"goinvaders/internal/cpu"
	"goinvaders/internal/memory"
	"goinvaders/internal/rom"
	"goinvaders/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// runOptions holds the flags of the root command
type runOptions struct {
	configPath string
	headless   bool
	backend    string
	frames     uint64
	debug      bool
	trace      bool
	dumpState  bool
	base       string
	statsView  bool
	snapshots  []int
}

func newRootCmd() *cobra.Command {
	var opts runOptions

	rootCmd := &cobra.Command{
		Use:   "goinvaders [rom file or ROM set directory]",
		Short: "Intel 8080 Space Invaders arcade emulator",
		Long: `goinvaders runs the Space Invaders arcade board.

The ROM is either a single flat image loaded at --base, or a directory
holding the split set invaders.h, invaders.g, invaders.f and invaders.e.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runEmulator(cmd, args[0], opts)
			if err != nil {
				log.Printf("[MAIN] %v", err)
			}
			return err
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", app.GetDefaultConfigPath(), "Path to configuration file")
	flags.BoolVar(&opts.headless, "headless", false, "Run without a window or sound")
	flags.StringVar(&opts.backend, "backend", "", "Graphics backend: ebitengine, terminal or headless")
	flags.Uint64Var(&opts.frames, "frames", 0, "Stop after this many frames (0 = run until quit)")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")
	flags.BoolVarP(&opts.trace, "trace", "p", false, "Log every executed instruction")
	flags.BoolVar(&opts.dumpState, "dump-state", false, "Log registers and flags around every instruction")
	flags.StringVar(&opts.base, "base", "", "Load address of a single-file ROM (e.g. 0x0100)")
	flags.BoolVar(&opts.statsView, "statsview", false, "Serve runtime statistics over HTTP")
	flags.IntSliceVar(&opts.snapshots, "snapshot", nil, "Headless frames to write as PPM images")

	rootCmd.AddCommand(newDisasmCmd(), newVersionCmd())
	return rootCmd
}

func runEmulator(cmd *cobra.Command, romPath string, opts runOptions) error {
	config := app.NewConfig()
	if err := config.LoadFromFile(opts.configPath); err != nil {
		log.Printf("[APP_WARNING] Could not load config from %s, using defaults: %v", opts.configPath, err)
		config = app.NewConfig()
	}

	if err := applyFlags(cmd, config, opts); err != nil {
		return err
	}

	application, err := app.NewApplication(config, opts.headless)
	if err != nil {
		return errors.Wrap(err, "failed to create application")
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			log.Printf("[MAIN] Application cleanup error: %v", err)
		}
	}()

	setupGracefulShutdown(application)

	if err := application.LoadROM(romPath); err != nil {
		return err
	}
	log.Printf("[MAIN] Loaded %s", application.GetROM())

	application.SetMaxFrames(opts.frames)
	if err := application.Run(); err != nil {
		return err
	}

	log.Printf("[MAIN] Session: %d frames in %v (%.1f FPS)",
		application.GetFrameCount(), application.GetUptime(), application.GetFPS())
	return nil
}

// applyFlags overrides config values with the flags given on the command line
func applyFlags(cmd *cobra.Command, config *app.Config, opts runOptions) error {
	if opts.backend != "" {
		config.Video.Backend = opts.backend
	}
	if opts.debug {
		config.Debug.EnableLogging = true
	}
	if opts.trace {
		config.Debug.CPUTracing = true
	}
	if opts.dumpState {
		config.Debug.DumpState = true
	}
	if opts.statsView {
		config.Debug.StatsView = true
	}
	if cmd.Flags().Changed("snapshot") {
		config.Debug.SnapshotFrames = opts.snapshots
	}
	if opts.base != "" {
		base, err := parseAddress(opts.base)
		if err != nil {
			return errors.Wrap(err, "invalid --base")
		}
		config.Emulation.LoadAddress = base
	}
	return nil
}

// parseAddress accepts decimal, 0x hex or $ hex
func parseAddress(s string) (uint16, error) {
	if len(s) > 1 && s[0] == '$' {
		s = "0x" + s[1:]
	}
	value, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(value), nil
}

func newDisasmCmd() *cobra.Command {
	var base, start string
	var count int

	cmd := &cobra.Command{
		Use:   "disasm [rom file or ROM set directory]",
		Short: "Disassemble 8080 code from a ROM image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loadAddress, err := parseAddress(base)
			if err != nil {
				return errors.Wrap(err, "invalid --base")
			}

			image, err := rom.Load(args[0], loadAddress)
			if err != nil {
				return err
			}

			mem := memory.New()
			if err := mem.Load(image.Base, image.Data); err != nil {
				return err
			}

			address := image.Base
			if start != "" {
				if address, err = parseAddress(start); err != nil {
					return errors.Wrap(err, "invalid --start")
				}
			}
			if count <= 0 {
				end := int(image.Base) + len(image.Data)
				count = instructionsUntil(mem, address, end)
			}

			out := cmd.OutOrStdout()
			for _, line := range cpu.DisassembleRange(mem, address, count) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&base, "base", "0", "Load address of a single-file ROM")
	cmd.Flags().StringVar(&start, "start", "", "First address to disassemble (default: load address)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of instructions (default: to the end of the image)")
	return cmd
}

// instructionsUntil counts the instructions starting at address that begin
// before end
func instructionsUntil(mem cpu.Memory, address uint16, end int) int {
	count := 0
	for pos := int(address); pos < end; count++ {
		_, size := cpu.Disassemble(mem, uint16(pos))
		pos += size
	}
	return count
}

func newVersionCmd() *cobra.Command {
	var detailed bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			if detailed {
				version.PrintBuildInfo(cmd.OutOrStdout())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.GetDetailedVersion())
		},
	}
	cmd.Flags().BoolVar(&detailed, "build-info", false, "Show full build information")
	return cmd
}

// setupGracefulShutdown stops the main loop on SIGINT/SIGTERM so cleanup runs
func setupGracefulShutdown(application *app.Application) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("[MAIN] Interrupt received, shutting down gracefully...")
		application.Stop()
	}()
}
