package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/expressfrac/internal/config"
	"github.com/san-kum/expressfrac/internal/frac"
	"github.com/san-kum/expressfrac/internal/orchestrator"
	"github.com/san-kum/expressfrac/internal/solver"
	"github.com/san-kum/expressfrac/internal/tui"
	"github.com/spf13/cobra"
)

const debugLogFile = "expressfrac-debug.log"

type options struct {
	configFile  string
	preset      string
	model       string
	integrator  string
	time        float64
	dt          float64
	rate        float64
	reportEvery int
	strict      bool
	debug       bool
	theme       string

	csvPath  string
	jsonPath string
	svgPath  string
	plot     bool
	quiet    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "expressfrac",
		Short:        "hydraulic fracture growth simulator",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, opts)
		},
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file path (yaml or toml)")
	pf.StringVar(&opts.preset, "preset", "", "use preset configuration")
	pf.StringVar(&opts.model, "model", config.DefaultModel, "fracture model")
	pf.StringVar(&opts.integrator, "integrator", config.DefaultIntegrator, "integrator")
	pf.Float64Var(&opts.time, "time", config.DefaultTime, "end time (s)")
	pf.Float64Var(&opts.dt, "dt", config.DefaultDt, "timestep (s)")
	pf.Float64Var(&opts.rate, "rate", config.DefaultRate, "injection rate (m^3/s), replaces the schedule")
	pf.IntVar(&opts.reportEvery, "report-every", config.DefaultReportEvery, "emit a result every N steps")
	pf.BoolVar(&opts.strict, "strict", false, "fail a run whose step times do not increase")
	pf.BoolVar(&opts.debug, "debug", false, "write debug logs")
	rootCmd.Flags().StringVar(&opts.theme, "theme", tui.ThemeOcean.Name, "colour theme")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation without the interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeadless(cmd, opts)
		},
	}
	runCmd.Flags().StringVar(&opts.csvPath, "csv", "", "export step summaries to CSV")
	runCmd.Flags().StringVar(&opts.jsonPath, "json", "", "export the run to JSON")
	runCmd.Flags().StringVar(&opts.svgPath, "svg", "", "write the front history as an SVG chart")
	runCmd.Flags().BoolVar(&opts.plot, "plot", false, "plot front length against time")
	runCmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "hide solver output")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models := config.Models()
			if len(args) > 0 {
				models = args[:1]
			}
			out := cmd.OutOrStdout()
			for _, model := range models {
				presets := config.ListPresets(model)
				if len(presets) == 0 {
					fmt.Fprintf(out, "no presets for model: %s\n", model)
					continue
				}
				fmt.Fprintf(out, "presets for %s:\n", model)
				for _, p := range presets {
					fmt.Fprintf(out, "  %s\n", p)
				}
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init-config <path>",
		Short: "write a config file with the resolved settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, presetsCmd, initCmd)
	return rootCmd
}

// resolveConfig layers defaults, preset, config file and changed flags, in
// that order.
func resolveConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Model = opts.model

	if opts.preset != "" {
		p := config.GetPreset(opts.model, opts.preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", opts.preset, config.ListPresets(opts.model))
		}
		cfg = p
	}

	if opts.configFile != "" {
		loaded, err := config.Load(opts.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model = opts.model
	}
	if flags.Changed("integrator") {
		cfg.Integrator = opts.integrator
	}
	if flags.Changed("time") {
		cfg.SetTime(opts.time)
	}
	if flags.Changed("dt") {
		cfg.Schedule.Dt = opts.dt
	}
	if flags.Changed("rate") {
		cfg.SetRate(opts.rate)
	}
	if flags.Changed("report-every") {
		cfg.Schedule.ReportEvery = opts.reportEvery
	}
	return cfg, nil
}

// prepare resolves the request and the solver for it.
func prepare(cmd *cobra.Command, opts *options) (frac.Request, solver.Solver, error) {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return frac.Request{}, nil, err
	}
	req, err := cfg.Request()
	if err != nil {
		return frac.Request{}, nil, err
	}
	s, err := solver.NewRegistry().Get(req.Model)
	if err != nil {
		return frac.Request{}, nil, err
	}
	return req, s, nil
}

func runInteractive(cmd *cobra.Command, opts *options) error {
	req, s, err := prepare(cmd, opts)
	if err != nil {
		return err
	}

	// the terminal belongs to bubbletea, so slog goes to a file or nowhere
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.debug {
		f, err := tea.LogToFile(debugLogFile, "expressfrac")
		if err != nil {
			return err
		}
		defer f.Close()
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o := orchestrator.New(s,
		orchestrator.WithLogger(logger),
		orchestrator.WithContext(ctx),
		orchestrator.WithStrictTime(opts.strict),
	)
	m := tui.New(o, req, tui.WithTheme(opts.theme), tui.WithLogger(logger))

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func headlessLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
