package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/bundlepacker/internal/builder"
	"git.home.luguber.info/inful/bundlepacker/internal/config"
	pkgerrors "git.home.luguber.info/inful/bundlepacker/internal/errors"
	"git.home.luguber.info/inful/bundlepacker/internal/metrics"
	"git.home.luguber.info/inful/bundlepacker/internal/version"
	"github.com/alecthomas/kong"
)

var CLI struct {
	Config  string           `short:"c" help:"Bundle configuration file path" default:"packager.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Print the version and exit"`

	Build struct {
		Demo          bool   `help:"Build the bundled demo configuration instead of a file"`
		TmpDir        string `help:"Temporary build directory (overrides the configuration)"`
		Output        string `short:"o" help:"Output directory for the bundle (overrides the configuration)"`
		BOM           string `help:"Input BOM file pinning component versions"`
		BundleVersion string `help:"Version for the output bundle (overrides the configuration)"`
		Install       bool   `help:"Install the final bundle into the local artifact store"`
		MetricsListen string `help:"Address to serve Prometheus metrics on during the run (e.g. :9090)"`
	} `cmd:"" help:"Build the bundle from the configured components"`

	Init struct {
		Force bool `help:"Overwrite an existing configuration file"`
	} `cmd:"" help:"Initialize a sample bundle configuration file"`
}

func main() {
	kctx := kong.Parse(&CLI, kong.Vars{"version": version.Version})

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	errAdapter := pkgerrors.NewCLIErrorAdapter(CLI.Verbose, slog.Default())

	switch kctx.Command() {
	case "build":
		errAdapter.HandleError(runBuild())
	case "init":
		errAdapter.HandleError(runInit())
	}
}

func runBuild() error {
	var cfg *config.Config
	if CLI.Build.Demo {
		slog.Info("Using the demo configuration")
		cfg = config.Demo()
	} else {
		loaded, err := config.Load(CLI.Config)
		if err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryConfig, pkgerrors.SeverityFatal, "failed to load the bundle configuration")
		}
		cfg = loaded
	}

	applyBuildFlags(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	recorder := metrics.Recorder(metrics.NoopRecorder{})
	if CLI.Build.MetricsListen != "" {
		promRecorder := metrics.NewPrometheusRecorder(nil)
		recorder = promRecorder
		srv := &http.Server{
			Addr:              CLI.Build.MetricsListen,
			Handler:           promRecorder.HTTPHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("Serving metrics", "addr", CLI.Build.MetricsListen)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Warn("Metrics listener stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	slog.Info("Starting bundle build",
		"config", CLI.Config,
		"bundle", cfg.Bundle.ArtifactID,
		"output", cfg.BuildSettings.OutputDir)

	start := time.Now()
	b := builder.New(cfg, builder.WithRecorder(recorder))
	if err := b.Build(ctx); err != nil {
		return err
	}

	slog.Info("Bundle build finished",
		"bundle", cfg.Bundle.ArtifactID,
		"bom", b.OutputBOMPath(),
		"duration", time.Since(start).Round(time.Millisecond).String())
	return nil
}

// applyBuildFlags layers CLI build flags over the loaded configuration.
// Flags always win.
func applyBuildFlags(cfg *config.Config) {
	if CLI.Build.TmpDir != "" {
		cfg.BuildSettings.TmpDir = CLI.Build.TmpDir
	}
	if CLI.Build.Output != "" {
		cfg.BuildSettings.OutputDir = CLI.Build.Output
	}
	if CLI.Build.BOM != "" {
		cfg.BuildSettings.BOM = CLI.Build.BOM
	}
	if CLI.Build.BundleVersion != "" {
		cfg.Bundle.Version = CLI.Build.BundleVersion
	}
	if CLI.Build.Install {
		cfg.BuildSettings.InstallArtifacts = true
	}
}

func runInit() error {
	slog.Info("Initializing configuration", "path", CLI.Config, "force", CLI.Init.Force)
	if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CategoryConfig, pkgerrors.SeverityFatal, "failed to write the sample configuration")
	}
	return nil
}
