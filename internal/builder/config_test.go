package builder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qobs-build/cmakegen/internal/builder/gen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const overlayTOML = `
[cmake]
linker = "/usr/bin/ld.gold"

[cmake.'target_os == "plan9"']
readelf = "/bin/readelf"

[compile.c]
flags = "-std=c11 -DOS={{ target_os }}"

[compile.c.variants]
minsizerel = "-Os"
debug = "-O0 -g3"

[compile.'variant == "RELEASE"'.cxx]
flags = "-std=c++20"

[link]
kinds = ["exe", "shared"]
flags = "-Wl,--as-needed"

[test]
prefix = "t_"
`

func testEnv(variant gen.Variant) ConfigEnv {
	return ConfigEnv{TargetOS: "linux", TargetArch: "amd64", Variant: variant.String()}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	env, err := s.Compile.C.CompileEnv(gen.LangC)
	require.NoError(t, err)

	assert.Equal(t, []string{
		`set(CMAKE_C_FLAGS "` + cFlags + `")`,
		`set(CMAKE_C_FLAGS_DEBUG "-O0 ` + cFlags + `")`,
		`set(CMAKE_C_FLAGS_RELEASE "-O2 ` + cFlags + `")`,
	}, env.Commands())
	assert.True(t, strings.HasPrefix(cxxFlags, "-std=gnu++17 -ggdb3 -Werror"))

	link, err := s.Link.LinkEnv()
	require.NoError(t, err)
	assert.Equal(t, gen.LinkKinds, link.Kinds)
	assert.Empty(t, link.Commands())

	assert.Equal(t, []string{
		`set(CMAKE_BUILD_TYPE "MINSIZEREL")`,
		`set(CMAKE_INSTALL_PREFIX "../build/")`,
	}, s.CacheEnv(gen.MinSizeRel).Commands())
}

func TestParseSettingsOverlay(t *testing.T) {
	s, err := ParseSettings(strings.NewReader(overlayTOML), testEnv(gen.Release))
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/ld.gold", s.CMake.Linker)
	assert.Empty(t, s.CMake.Readelf, "false condition must not merge")
	assert.Equal(t, "../build/", s.CMake.InstallPrefix, "defaults survive the overlay")

	assert.Equal(t, "-std=c11 -DOS=linux", s.Compile.C.Flags)
	assert.Equal(t, map[string]string{
		"DEBUG":      "-O0 -g3",
		"RELEASE":    "-O2 " + cFlags,
		"MINSIZEREL": "-Os",
	}, s.Compile.C.Variants)
	assert.Equal(t, "-std=c++20", s.Compile.CXX.Flags)

	link, err := s.Link.LinkEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{
		`set(CMAKE_EXE_LINKER_FLAGS "-Wl,--as-needed")`,
		`set(CMAKE_SHARED_LINKER_FLAGS "-Wl,--as-needed")`,
	}, link.Commands())

	assert.Equal(t, "t_", s.Test.Prefix)
	assert.Equal(t, passMarker, s.Test.PassMarker)
}

func TestParseSettingsConditionFalse(t *testing.T) {
	s, err := ParseSettings(strings.NewReader(overlayTOML), testEnv(gen.Debug))
	require.NoError(t, err)
	assert.Equal(t, cxxFlags, s.Compile.CXX.Flags)
}

func TestParseSettingsErrors(t *testing.T) {
	_, err := ParseSettings(strings.NewReader("[cmake\n"), testEnv(gen.Debug))
	assert.Error(t, err)

	_, err = ParseSettings(strings.NewReader(`[cmake]
ar = "{{ nope( }}"
`), testEnv(gen.Debug))
	assert.ErrorContains(t, err, "expression")

	s, err := ParseSettings(strings.NewReader(`[compile.c.variants]
fast = "-Ofast"
`), testEnv(gen.Debug))
	require.NoError(t, err)
	_, err = s.Compile.C.CompileEnv(gen.LangC)
	assert.ErrorContains(t, err, "unknown build variant")

	s, err = ParseSettings(strings.NewReader(`[link]
kinds = ["dll"]
`), testEnv(gen.Debug))
	require.NoError(t, err)
	_, err = s.Link.LinkEnv()
	assert.ErrorContains(t, err, "unknown link kind")
}

func TestLoadSettingsMissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), SettingsFilename), testEnv(gen.Debug))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoadSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFilename)
	require.NoError(t, os.WriteFile(path, []byte("[sources]\nextensions = [\".cc\"]\n"), 0o644))

	s, err := LoadSettings(path, testEnv(gen.Debug))
	require.NoError(t, err)
	assert.Equal(t, []string{".cc"}, s.Sources.Extensions)
}

func TestResolveCompiler(t *testing.T) {
	t.Setenv("CC", "/opt/cc")
	t.Setenv("CXX", "/opt/c++")

	cc, err := resolveCompiler(compilerAuto, false)
	require.NoError(t, err)
	assert.Equal(t, "/opt/cc", cc)

	cxx, err := resolveCompiler(compilerAuto, true)
	require.NoError(t, err)
	assert.Equal(t, "/opt/c++", cxx)

	fixed, err := resolveCompiler("/usr/bin/gcc", false)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/gcc", fixed)
}

func TestMergeStructs(t *testing.T) {
	dst := LanguageSection{Flags: "-a", Ranlib: "ranlib", Variants: map[string]string{"DEBUG": "-g"}}
	src := LanguageSection{Compiler: "cc", Variants: map[string]string{"RELEASE": "-O2"}}
	raw := map[string]any{
		"compiler": "cc",
		"ranlib":   "",
		"variants": map[string]any{"RELEASE": "-O2"},
	}
	require.NoError(t, mergeStructs(&dst, src, raw))

	assert.Equal(t, "cc", dst.Compiler)
	assert.Equal(t, "-a", dst.Flags, "absent keys keep their value")
	assert.Empty(t, dst.Ranlib, "present empty keys clear the value")
	assert.Equal(t, map[string]string{"DEBUG": "-g", "RELEASE": "-O2"}, dst.Variants)

	assert.Error(t, mergeStructs(dst, src, raw))
}

func TestParseSettingsClearsDefaults(t *testing.T) {
	s, err := ParseSettings(strings.NewReader(`[cmake]
install-prefix = ""

[compile.c]
flags = ""

[compile.'variant == "RELEASE"'.cxx]
flags = ""
`), testEnv(gen.Release))
	require.NoError(t, err)

	assert.Empty(t, s.CMake.InstallPrefix)
	assert.Empty(t, s.Compile.C.Flags)
	assert.Empty(t, s.Compile.CXX.Flags)
	assert.Equal(t, "-O0 "+cFlags, s.Compile.C.Variants["DEBUG"], "untouched keys keep the default")
	assert.Equal(t, []string{`set(CMAKE_BUILD_TYPE "RELEASE")`}, s.CacheEnv(gen.Release).Commands())
}

func TestParseSettingsEmptyTestMarkers(t *testing.T) {
	for _, key := range []string{"separator", "pass-marker", "fail-marker"} {
		_, err := ParseSettings(strings.NewReader("[test]\n"+key+" = \"\"\n"), testEnv(gen.Debug))
		assert.ErrorContains(t, err, key+" must not be empty")
	}

	s, err := ParseSettings(strings.NewReader("[test]\nseparator = \"====\\n\"\n"), testEnv(gen.Debug))
	require.NoError(t, err)
	assert.Equal(t, "====\n", s.Test.Separator)
}
