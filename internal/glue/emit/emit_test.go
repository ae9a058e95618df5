package emit

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxxglue/cxxglue/internal/glue"
	"github.com/cxxglue/cxxglue/internal/glue/translate"
	"github.com/cxxglue/cxxglue/internal/host"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func target64(t *testing.T) host.Target {
	t.Helper()
	tgt, err := host.ParseTarget("x86_64-unknown-linux-gnu")
	require.NoError(t, err)
	return tgt
}

func emitterFor(t *testing.T, tgt host.Target) *Emitter {
	t.Helper()
	return New(Config{OutDir: t.TempDir(), Target: tgt}, nil, discard())
}

// scenarioState builds state for one block capturing an i32 by reference and
// returning a u64.
func scenarioState(t *testing.T) *glue.State {
	t.Helper()
	st := glue.NewState()
	require.NoError(t, st.Register(&glue.EmbeddedBlock{
		Name: "__cxx_block_0",
		Args: []glue.Capture{{Ident: "arg0", Foreign: "rs::i32", Const: true}},
		Ret:  "rs::u64",
	}))
	return st
}

func TestRenderPreamble(t *testing.T) {
	doc, err := emitterFor(t, target64(t)).Render(scenarioState(t))
	require.NoError(t, err)
	text := string(doc)

	// The float-width assertions are present verbatim regardless of target.
	assert.Contains(t, text, "static_assert(sizeof(f32) == 4, \"C++ `float` isn't 32 bits wide\");")
	assert.Contains(t, text, "static_assert(sizeof(f64) == 8, \"C++ `double` isn't 64 bits wide\");")

	assert.Contains(t, text, "struct Slice {")
	assert.Contains(t, text, "typedef Slice<uint8_t> StrSlice;")
	assert.Contains(t, text, "struct TraitObject {")
	assert.Contains(t, text, "struct __Incompatible;")
	assert.Contains(t, text, "typedef i8 bool_;")
	assert.Contains(t, text, "#include <cstdint>")
}

func TestRenderPointerWidthFollowsTarget(t *testing.T) {
	tests := []struct {
		triple   string
		wantUint string
		wantInt  string
	}{
		{"x86_64-unknown-linux-gnu", "typedef uint64_t usize;", "typedef int64_t isize;"},
		{"aarch64-apple-darwin", "typedef uint64_t usize;", "typedef int64_t isize;"},
		{"i686-unknown-linux-gnu", "typedef uint32_t usize;", "typedef int32_t isize;"},
		{"wasm32-unknown-unknown", "typedef uint32_t usize;", "typedef int32_t isize;"},
	}

	for _, tt := range tests {
		t.Run(tt.triple, func(t *testing.T) {
			tgt, err := host.ParseTarget(tt.triple)
			require.NoError(t, err)
			doc, err := emitterFor(t, tgt).Render(scenarioState(t))
			require.NoError(t, err)
			assert.Contains(t, string(doc), tt.wantUint)
			assert.Contains(t, string(doc), tt.wantInt)
		})
	}
}

func TestRenderBlockDeclaration(t *testing.T) {
	doc, err := emitterFor(t, target64(t)).Render(scenarioState(t))
	require.NoError(t, err)

	// One extern "C" declaration, preamble typedef names, original capture
	// identifier, const pointer for the immutable by-reference capture.
	assert.Contains(t, string(doc), `extern "C" {`)
	assert.Contains(t, string(doc), "rs::u64 __cxx_block_0(rs::i32 const* arg0);")
}

func TestRenderArgumentOrderPreserved(t *testing.T) {
	st := glue.NewState()
	require.NoError(t, st.Register(&glue.EmbeddedBlock{
		Name: "__cxx_block_0",
		Args: []glue.Capture{
			{Ident: "first", Foreign: "rs::u8", Const: true},
			{Ident: "second", Foreign: "rs::f64", Const: false},
			{Ident: "third", Foreign: "rs::StrSlice", Const: true},
		},
		Ret: "void",
	}))

	doc, err := emitterFor(t, target64(t)).Render(st)
	require.NoError(t, err)
	assert.Contains(t, string(doc),
		"void __cxx_block_0(rs::u8 const* first, rs::f64* second, rs::StrSlice const* third);")
}

func TestRenderDeterministic(t *testing.T) {
	st := glue.NewState()
	for _, name := range []string{"__cxx_block_0", "__cxx_block_1", "__cxx_block_2"} {
		require.NoError(t, st.Register(&glue.EmbeddedBlock{Name: name, Ret: "void"}))
	}
	st.AddHeader("#include <vector>")

	em := emitterFor(t, target64(t))
	first, err := em.Render(st)
	require.NoError(t, err)
	second, err := em.Render(st)
	require.NoError(t, err)
	assert.Equal(t, first, second, "document bytes must be identical across runs")
}

func TestRenderSharedTypeDeclaredOnce(t *testing.T) {
	st := glue.NewState()
	diags := &host.Collector{}
	tr := &translate.Translator{Registry: st.Types, Diags: diags}

	point := &host.Type{
		Kind: host.KindStruct,
		Path: "demo::Point",
		Fields: []host.Field{
			{Name: "x", Type: &host.Type{Kind: host.KindF32}},
			{Name: "y", Type: &host.Type{Kind: host.KindF32}},
		},
	}

	// Two blocks capture the same compound host type.
	for i, name := range []string{"__cxx_block_0", "__cxx_block_1"} {
		foreign, err := tr.Translate(point, true, translate.Origin{Block: name})
		require.NoError(t, err)
		require.NoError(t, st.Register(&glue.EmbeddedBlock{
			Name: name,
			Args: []glue.Capture{{Ident: "p", Foreign: foreign, Const: i == 0}},
			Ret:  "void",
		}))
	}

	doc, err := emitterFor(t, target64(t)).Render(st)
	require.NoError(t, err)
	text := string(doc)

	assert.Equal(t, 1, countOccurrences(text, "struct Point {"), "one declaration for the shared type")
	assert.Contains(t, text, "void __cxx_block_0(rs::Point const* p);")
	assert.Contains(t, text, "void __cxx_block_1(rs::Point* p);")
}

func TestRenderUserHeadersVerbatim(t *testing.T) {
	st := scenarioState(t)
	st.AddHeader("#include <vector>\n#define GLUE_DEBUG 1")

	doc, err := emitterFor(t, target64(t)).Render(st)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "#include <vector>\n#define GLUE_DEBUG 1")
}

func TestWriteDocument(t *testing.T) {
	dir := t.TempDir()
	em := New(Config{OutDir: dir, Target: target64(t)}, nil, discard())

	path, err := em.WriteDocument(scenarioState(t))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, GeneratedFileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rs::u64 __cxx_block_0")
}

func TestSetupToolchainEnv(t *testing.T) {
	// Dirty every variable first so the assertions prove the setup wrote
	// them, and so the test framework restores the originals afterwards.
	for _, v := range []string{"TARGET", "HOST", "OPT_LEVEL", "OUT_DIR", "CXXGLUE_MANIFEST_DIR", "PROFILE"} {
		t.Setenv(v, "stale")
	}

	t.Run("populates the contract", func(t *testing.T) {
		t.Setenv("CXXFLAGS", "")
		outDir := t.TempDir()
		em := New(Config{
			OutDir:     outDir,
			Target:     target64(t),
			HostTriple: "x86_64-unknown-linux-gnu",
			OptLevel:   2,
		}, nil, discard())
		require.NoError(t, em.setupToolchainEnv())

		assert.Equal(t, "x86_64-unknown-linux-gnu", os.Getenv("TARGET"))
		assert.Equal(t, "x86_64-unknown-linux-gnu", os.Getenv("HOST"))
		assert.Equal(t, "2", os.Getenv("OPT_LEVEL"))
		assert.Equal(t, outDir, os.Getenv("OUT_DIR"))
		assert.Equal(t, outDir, os.Getenv("CXXGLUE_MANIFEST_DIR"), "manifest dir falls back to the output dir")
		assert.Equal(t, "", os.Getenv("PROFILE"))
		assert.Equal(t, "-std=c++11", os.Getenv("CXXFLAGS"))
	})

	t.Run("merges user CXXFLAGS", func(t *testing.T) {
		t.Setenv("CXXFLAGS", "-Wall -Wextra")
		em := New(Config{OutDir: t.TempDir(), Target: target64(t)}, nil, discard())
		require.NoError(t, em.setupToolchainEnv())
		assert.Equal(t, "-Wall -Wextra -std=c++11", os.Getenv("CXXFLAGS"))
	})

	t.Run("explicit manifest dir wins", func(t *testing.T) {
		t.Setenv("CXXFLAGS", "")
		em := New(Config{
			OutDir:      t.TempDir(),
			Target:      target64(t),
			ManifestDir: "/srv/build/host-crate",
		}, nil, discard())
		require.NoError(t, em.setupToolchainEnv())
		assert.Equal(t, "/srv/build/host-crate", os.Getenv("CXXGLUE_MANIFEST_DIR"))
	})
}

func TestResolveOutDir(t *testing.T) {
	t.Run("explicit wins", func(t *testing.T) {
		dir, err := ResolveOutDir("/tmp/explicit", "")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/explicit", dir)
	})

	t.Run("manifest out_dir", func(t *testing.T) {
		manifest := filepath.Join(t.TempDir(), BuildManifestName)
		require.NoError(t, os.WriteFile(manifest, []byte("[build]\nout_dir = \"/tmp/from-manifest\"\nflags = [\"-pthread\"]\n"), 0o644))

		dir, err := ResolveOutDir("", manifest)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/from-manifest", dir)
		assert.Equal(t, []string{"-pthread"}, ManifestFlags(manifest))
	})

	t.Run("falls back to working directory", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)
		dir, err := ResolveOutDir("", "")
		require.NoError(t, err)
		assert.Equal(t, wd, dir)
	})
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}
