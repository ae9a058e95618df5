package emit

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cxxglue/cxxglue/internal/log"
)

// CompileArchive compiles one C++ source file into a static archive named
// lib<base>.a inside outDir. Compiler selection and baseline flags follow
// the environment contract set up by the emitter: CXX/AR name the tools,
// CXXFLAGS and OPT_LEVEL shape the compile. extraFlags are the accumulated
// per-block flags, passed through verbatim in order.
//
// Runs outside any lock; it blocks on subprocess I/O. There is no timeout:
// a hung toolchain hangs the whole build.
//
// Every invocation and its combined output is recorded on the transcript.
func CompileArchive(srcPath, outDir, base string, extraFlags []string, transcript log.Transcript, logger *slog.Logger) (string, error) {
	compiler := os.Getenv("CXX")
	if compiler == "" {
		compiler = "c++"
	}
	ar := os.Getenv("AR")
	if ar == "" {
		ar = "ar"
	}

	objPath := filepath.Join(outDir, base+".o")
	archivePath := filepath.Join(outDir, "lib"+base+".a")

	args := strings.Fields(os.Getenv("CXXFLAGS"))
	if opt := os.Getenv("OPT_LEVEL"); opt != "" {
		args = append(args, "-O"+opt)
	}
	args = append(args, "-fPIC")
	args = append(args, extraFlags...)
	args = append(args, "-c", srcPath, "-o", objPath)

	logger.Debug("invoking C++ compiler", "compiler", compiler, "args", args)
	transcript.Command(compiler, args)
	cmd := exec.Command(compiler, args...)
	out, err := cmd.CombinedOutput()
	transcript.Output(out)
	if err != nil {
		return "", fmt.Errorf("%s failed: %w\n%s", compiler, err, out)
	}

	// Truncate any stale archive so reruns are reproducible.
	_ = os.Remove(archivePath)
	arArgs := []string{"crs", archivePath, objPath}
	logger.Debug("archiving", "ar", ar, "archive", archivePath)
	transcript.Command(ar, arArgs)
	arCmd := exec.Command(ar, arArgs...)
	out, err = arCmd.CombinedOutput()
	transcript.Output(out)
	if err != nil {
		return "", fmt.Errorf("%s failed: %w\n%s", ar, err, out)
	}

	return archivePath, nil
}
