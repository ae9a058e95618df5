// Package cmd defines the kong command structs for the cxxglue binary.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cxxglue/cxxglue/internal/glue"
	"github.com/cxxglue/cxxglue/internal/glue/capture"
	"github.com/cxxglue/cxxglue/internal/glue/emit"
	"github.com/cxxglue/cxxglue/internal/host"
	"github.com/cxxglue/cxxglue/internal/log"
	"github.com/cxxglue/cxxglue/internal/unit"
)

// buildOptions are the pipeline settings shared by the build and emit
// commands.
type buildOptions struct {
	Unit     string `arg:"" help:"Path to the front-end unit dump (YAML)" type:"existingfile"`
	OutDir   string `help:"Output directory for the generated document and archive (default: manifest build.out_dir, then the working directory)" env:"CXXGLUE_OUT_DIR"`
	Manifest string `help:"Path to a cxxglue.toml build manifest" env:"CXXGLUE_MANIFEST"`
	Target   string `help:"Override the unit dump's target triple" env:"CXXGLUE_TARGET"`
	HostTrpl string `name:"host" help:"Host triple of the running toolchain" env:"CXXGLUE_HOST"`
	OptLevel int    `help:"Optimization level forwarded to the C++ compiler" default:"0" env:"CXXGLUE_OPT_LEVEL"`

	ToolchainLog string `help:"Write toolchain invocations and their raw output to this file" env:"CXXGLUE_TOOLCHAIN_LOG"`
}

// Build runs the whole pipeline: capture pass, document emission, toolchain
// compile, link-search registration.
type Build struct {
	buildOptions `embed:""`
}

// Run is called by Kong when the build command is executed.
func (b *Build) Run(logger *slog.Logger) error {
	return runPipeline(logger, b.buildOptions, true)
}

// Emit runs the capture pass and writes the generated document, but skips
// the toolchain invocation. Useful for inspecting what would be compiled.
type Emit struct {
	buildOptions `embed:""`
}

// Run is called by Kong when the emit command is executed.
func (e *Emit) Run(logger *slog.Logger) error {
	return runPipeline(logger, e.buildOptions, false)
}

func runPipeline(logger *slog.Logger, opts buildOptions, compile bool) error {
	u, err := unit.Load(opts.Unit)
	if err != nil {
		return err
	}

	triple := u.Target
	if opts.Target != "" {
		triple = opts.Target
	}
	target, err := host.ParseTarget(triple)
	if err != nil {
		return err
	}
	hostTriple := opts.HostTrpl
	if hostTriple == "" {
		hostTriple = defaultHostTriple()
	}

	outDir, err := emit.ResolveOutDir(opts.OutDir, opts.Manifest)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	st := glue.NewState()
	if err := u.Prime(st); err != nil {
		return err
	}
	st.AddFlags(emit.ManifestFlags(opts.Manifest)...)

	logger.Info("starting glue pipeline",
		"unit", opts.Unit,
		"blocks", len(st.Blocks()),
		"target", target.Triple,
		"out", outDir)

	var transcript log.Transcript
	if opts.ToolchainLog != "" {
		f, err := os.OpenFile(opts.ToolchainLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open toolchain log: %w", err)
		}
		defer f.Close()
		transcript = log.NewTranscript(f)
	}

	emitter := emit.New(emit.Config{
		OutDir:      outDir,
		Target:      target,
		HostTriple:  hostTriple,
		OptLevel:    opts.OptLevel,
		ManifestDir: manifestDir(opts.Manifest),
		Transcript:  transcript,
	}, &linkSearchPrinter{logger: logger}, logger)

	finalize := func(st *glue.State) error {
		if compile {
			_, err := emitter.Emit(st)
			return err
		}
		_, err := emitter.WriteDocument(st)
		return err
	}

	diags := &host.Collector{}
	rec := capture.New(st, u, diags, finalize, logger)

	for _, e := range u.Exprs {
		if err := host.Walk(e, rec.VisitExpr); err != nil {
			reportDiags(logger, diags)
			return err
		}
	}
	reportDiags(logger, diags)

	if rec.Phase() != capture.Finalized {
		var unresolved []string
		for _, b := range st.Blocks() {
			if !b.Resolved() {
				unresolved = append(unresolved, b.Name)
			}
		}
		return fmt.Errorf("unit dump never resolved block(s): %s", strings.Join(unresolved, ", "))
	}
	return nil
}

func reportDiags(logger *slog.Logger, diags *host.Collector) {
	for _, d := range diags.All() {
		switch d.Severity {
		case host.SevError:
			logger.Error(d.String())
		default:
			logger.Warn(d.String())
		}
	}
}

func manifestDir(manifestPath string) string {
	if manifestPath == "" {
		return ""
	}
	return filepath.Dir(manifestPath)
}

// linkSearchPrinter announces the registered search path on stdout in the
// directive form build drivers consume, mirroring build-script conventions.
type linkSearchPrinter struct {
	logger *slog.Logger
}

func (p *linkSearchPrinter) AddSearchPath(dir string) error {
	if _, err := fmt.Fprintf(os.Stdout, "cxxglue:link-search=native=%s\n", dir); err != nil {
		return err
	}
	p.logger.Debug("registered link search path", "dir", dir)
	return nil
}

// defaultHostTriple guesses the host triple from the Go runtime when the
// host compiler did not hand one over.
func defaultHostTriple() string {
	arch := map[string]string{
		"amd64": "x86_64",
		"arm64": "aarch64",
		"386":   "i686",
		"arm":   "armv7",
	}[runtime.GOARCH]
	if arch == "" {
		arch = runtime.GOARCH
	}
	switch runtime.GOOS {
	case "darwin":
		return arch + "-apple-darwin"
	case "windows":
		return arch + "-pc-windows-msvc"
	default:
		return arch + "-unknown-" + runtime.GOOS + "-gnu"
	}
}
