package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sppas/phoenix/internal/cleanup"
	"github.com/sppas/phoenix/internal/logger"
	"github.com/sppas/phoenix/internal/settings"
	"github.com/sppas/phoenix/internal/ui"
	"github.com/sppas/phoenix/internal/version"
	"github.com/sppas/phoenix/internal/workspace"
)

const appID = "org.sppas.phoenix"

type rootOptions struct {
	logLevel     int
	splashDelay  float64
	logDir       string
	settingsPath string
	workspace    string
}

// launch opens the editor window and returns once it is closed.
var launch = func(opts ui.Options) error {
	a := ui.New(app.NewWithID(appID), opts)
	a.Run()
	return nil
}

func newRootCmd() *cobra.Command {
	opts := rootOptions{}

	cmd := &cobra.Command{
		Use:   "phoenix [files...]",
		Short: "SPPAS Phoenix, the time-aligned annotation editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditor(cmd, args, &opts)
		},
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
	}

	cmd.Version = version.Info()
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetUsageTemplate(rootUsageTemplate)

	bindFlags(cmd.Flags(), &opts)

	cmd.AddCommand(
		newVersionCmd(),
		newFormatsCmd(),
		newLicensesCmd(),
	)
	cmd.CompletionOptions.DisableDefaultCmd = true
	return cmd
}

func bindFlags(f *pflag.FlagSet, opts *rootOptions) {
	f.IntVar(&opts.logLevel, "log_level", 20, "Logging level: 10 debug, 20 info, 30 warning, 40 error")
	f.Float64Var(&opts.splashDelay, "splash_delay", 0, "Seconds the splash window stays up")
	f.StringVar(&opts.logDir, "log_dir", "", "Also write a rotated JSON log file in this directory")
	f.StringVar(&opts.settingsPath, "settings", "", "Settings file (default: the user configuration directory)")
	f.StringVar(&opts.workspace, "workspace", "", "Workspace file whose checked files are opened, and which is saved on exit")
	f.SortFlags = false
}

func runEditor(cmd *cobra.Command, args []string, o *rootOptions) error {
	if o.splashDelay < 0 {
		_ = cmd.Usage()
		return fmt.Errorf("--splash_delay must not be negative")
	}
	level := logger.LevelFromSPPAS(o.logLevel)
	var logFile io.Writer
	if cmd.Flags().Changed("log_dir") {
		lf, err := logger.OpenFile(o.logDir, level)
		if err != nil {
			return fmt.Errorf("failed to open log file in %s: %w", o.logDir, err)
		}
		cleanup.Register("log file", lf.Close)
		logFile = lf
	}
	logger.Init(level, logFile)
	logger.Info("Starting", "version", version.Version, "files", len(args))

	s, path := loadSettings(o.settingsPath)
	if path != "" {
		cleanup.Register("settings", func() error { return settings.Save(path, s) })
	}

	ws, err := loadWorkspace(o.workspace)
	if err != nil {
		return err
	}
	files := append(ws.Checked(), args...)
	if o.workspace != "" {
		cleanup.Register("workspace", func() error { return workspace.Save(o.workspace, ws) })
	}

	return launch(ui.Options{
		Settings:    s,
		Workspace:   ws,
		Files:       files,
		SplashDelay: time.Duration(o.splashDelay * float64(time.Second)),
	})
}

// loadSettings never fails: the defaults stand in for a missing or bad
// file. The returned path is where the settings are written back.
func loadSettings(path string) (*settings.Settings, string) {
	if path == "" {
		p, err := settings.DefaultPath()
		if err != nil {
			logger.Warn("No settings location, using defaults", "error", err)
			return settings.Default(), ""
		}
		path = p
	}
	s, err := settings.Load(path)
	if err != nil {
		logger.Warn("Settings not read, using defaults", "path", path, "error", err)
	}
	return s, path
}

func loadWorkspace(path string) (*workspace.Workspace, error) {
	if path == "" {
		return workspace.New("editor"), nil
	}
	ws, err := workspace.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return workspace.New("editor"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace %s: %w", path, err)
	}
	ws.Refresh()
	return ws, nil
}
