// Package emit renders the accumulated glue state into one C++ source
// document and drives the foreign toolchain that turns it into a static
// archive on the host linker's search path.
package emit

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/cxxglue/cxxglue/internal/glue"
	"github.com/cxxglue/cxxglue/internal/host"
	"github.com/cxxglue/cxxglue/internal/log"
)

const (
	// GeneratedFileName is the fixed name of the emitted C++ document.
	GeneratedFileName = "cxxglue_gen.cpp"
	// ArchiveBaseName names the static archive, as lib<base>.a.
	ArchiveBaseName = "cxxglue_gen"
	// stdFlag is appended to any user CXXFLAGS; the generated document
	// needs C++11 for static_assert and enum underlying types.
	stdFlag = "-std=c++11"
)

// SearchPathRegistrar is the host's extension point for adding a library
// search path before its linker reads the search-path list. Registration
// after the linker has started reading is undefined; the emitter always
// registers before invoking the toolchain.
type SearchPathRegistrar interface {
	AddSearchPath(dir string) error
}

// Config carries the structured inputs the emitter needs. OutDir is already
// resolved (see ResolveOutDir); nothing here is recovered from ambient
// process arguments.
type Config struct {
	OutDir     string
	Target     host.Target
	HostTriple string
	OptLevel   int

	// ManifestDir points at the host build manifest directory, exported to
	// the toolchain environment for wrappers that expect to run inside a
	// packaging-tool build step.
	ManifestDir string

	// Transcript, when set, records every toolchain invocation and its raw
	// output. Defaults to a no-op.
	Transcript log.Transcript
}

// Emitter renders and compiles the glue document for one compilation unit.
type Emitter struct {
	cfg    Config
	paths  SearchPathRegistrar
	logger *slog.Logger
}

// New returns an emitter. paths may be nil when the host exposes no
// search-path extension point.
func New(cfg Config, paths SearchPathRegistrar, logger *slog.Logger) *Emitter {
	if cfg.Transcript == nil {
		cfg.Transcript = log.NewTranscript(nil)
	}
	return &Emitter{cfg: cfg, paths: paths, logger: logger}
}

// Render produces the full document. The output is byte-deterministic for a
// fixed unit and target: blocks appear in registration order and type
// declarations in discovery order.
func (e *Emitter) Render(st *glue.State) ([]byte, error) {
	ptrUint, ptrInt := pointerTypedefs(e.cfg.Target)

	funcs := template.FuncMap{
		"blockdecl": blockDecl,
	}
	tmpl, err := template.New("document").Funcs(funcs).Parse(documentTmpl)
	if err != nil {
		return nil, fmt.Errorf("parse document template: %w", err)
	}

	data := struct {
		PtrUint string
		PtrInt  string
		Headers string
		Decls   []templateDecl
		Blocks  []*glue.EmbeddedBlock
	}{
		PtrUint: ptrUint,
		PtrInt:  ptrInt,
		Headers: st.Headers(),
		Blocks:  st.Blocks(),
	}
	for _, d := range st.Types.Decls() {
		data.Decls = append(data.Decls, templateDecl{Body: d.Body})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute document template: %w", err)
	}
	return buf.Bytes(), nil
}

type templateDecl struct{ Body string }

// WriteDocument renders the document and writes it to the fixed filename in
// the configured output directory, returning the written path.
func (e *Emitter) WriteDocument(st *glue.State) (string, error) {
	doc, err := e.Render(st)
	if err != nil {
		return "", err
	}
	path := filepath.Join(e.cfg.OutDir, GeneratedFileName)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return "", fmt.Errorf("write generated document: %w", err)
	}
	e.logger.Info("wrote generated C++ document", "file", path, "bytes", len(doc))
	return path, nil
}

// Emit writes the document, registers the output directory on the link
// search path, populates the toolchain environment and compiles the
// document into a static archive. On toolchain failure the document is left
// on disk for inspection. Returns the archive path.
func (e *Emitter) Emit(st *glue.State) (string, error) {
	docPath, err := e.WriteDocument(st)
	if err != nil {
		return "", err
	}

	// The search path must be registered before the host linker reads the
	// search-path list; doing it before the (slow) compile keeps that
	// window as early as possible.
	if e.paths != nil {
		if err := e.paths.AddSearchPath(e.cfg.OutDir); err != nil {
			return "", fmt.Errorf("register link search path: %w", err)
		}
	}

	if err := e.setupToolchainEnv(); err != nil {
		return "", err
	}

	archive, err := CompileArchive(docPath, e.cfg.OutDir, ArchiveBaseName, st.Flags(), e.cfg.Transcript, e.logger)
	if err != nil {
		return "", fmt.Errorf("compile generated document (preserved at %s): %w", docPath, err)
	}
	e.logger.Info("compiled glue archive", "archive", archive)
	return archive, nil
}

// setupToolchainEnv populates the environment-driven configuration the
// toolchain wrapper expects from a packaging-tool build step.
func (e *Emitter) setupToolchainEnv() error {
	manifestDir := e.cfg.ManifestDir
	if manifestDir == "" {
		manifestDir = e.cfg.OutDir
	}
	vars := map[string]string{
		"TARGET":               e.cfg.Target.Triple,
		"HOST":                 e.cfg.HostTriple,
		"OPT_LEVEL":            strconv.Itoa(e.cfg.OptLevel),
		"OUT_DIR":              e.cfg.OutDir,
		"CXXGLUE_MANIFEST_DIR": manifestDir,
		"PROFILE":              "",
	}
	for k, v := range vars {
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}

	// Merge the required language-standard flag with any pre-existing user
	// CXXFLAGS rather than clobbering them.
	cxxflags := strings.TrimSpace(os.Getenv("CXXFLAGS") + " " + stdFlag)
	if err := os.Setenv("CXXFLAGS", cxxflags); err != nil {
		return fmt.Errorf("set CXXFLAGS: %w", err)
	}
	return nil
}

// pointerTypedefs returns the C++ spellings backing usize/isize for the
// target's pointer width.
func pointerTypedefs(t host.Target) (ptrUint, ptrInt string) {
	if t.PointerWidth == 32 {
		return "uint32_t", "int32_t"
	}
	return "uint64_t", "int64_t"
}

// blockDecl renders one extern-linkage declaration: return type, block name
// and each capture as a pointer parameter in original capture order.
func blockDecl(b *glue.EmbeddedBlock) string {
	var sb strings.Builder
	sb.WriteString(b.Ret)
	sb.WriteByte(' ')
	sb.WriteString(b.Name)
	sb.WriteByte('(')
	for i, a := range b.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.Foreign)
		if a.Const {
			sb.WriteString(" const")
		}
		sb.WriteString("* ")
		sb.WriteString(a.Ident)
	}
	sb.WriteString(");")
	return sb.String()
}
