package gen

import (
	"path"
	"strconv"
	"strings"
)

// TestPrefix is prepended to the name of every test target
const TestPrefix = "test_"

// CompileTarget is one buildable artifact
type CompileTarget struct {
	Name        string
	Kind        Kind
	Libraries   []string
	LibraryDir  string
	ExtraSource string // empty for the main target
}

func (t CompileTarget) declareVerb() string {
	if t.Kind == KindBin {
		return "add_executable"
	}
	return "add_library"
}

func (t CompileTarget) Commands() []string {
	var lines []string
	for _, lib := range t.Libraries {
		lines = append(lines, Bare("link_directories", path.Join(t.LibraryDir, lib, "lib")))
	}

	args := []string{t.Name}
	if t.Kind == KindSharedLib {
		args = append(args, "SHARED")
	}
	if t.ExtraSource != "" {
		args = append(args, t.ExtraSource)
	}
	args = append(args, "${"+SourceListVar+"}")
	lines = append(lines, Bare(t.declareVerb(), strings.Join(args, " ")))

	if len(t.Libraries) > 0 {
		lines = append(lines, Render("target_link_libraries", List(t.Name, t.Libraries...)))
	}
	return lines
}

// TestSuite is the set of test executables of a library module
type TestSuite struct {
	Targets []CompileTarget
}

func (s TestSuite) Commands() []string {
	lines := []string{Render("set", Scalar("EXECUTABLE_OUTPUT_PATH", TestOutputPath))}
	for _, t := range s.Targets {
		lines = append(lines, t.Commands()...)
	}
	return lines
}

// TestTargets builds one executable target per test source. files are
// slash-separated paths relative to testDir, in the order they should be
// emitted.
//
// A target is named after the directory holding its source, so
// vector/main.cpp becomes test_vector. Files directly in testDir use their
// stem, directories with several sources append the stem, and any name
// still taken, by an earlier test or by one of the reserved names, gets a
// numeric suffix.
func TestTargets(prefix, testDir string, files []string, reserved ...string) []CompileTarget {
	perDir := make(map[string]int)
	for _, f := range files {
		perDir[path.Dir(f)]++
	}

	used := make(map[string]bool, len(reserved)+len(files))
	for _, name := range reserved {
		used[name] = true
	}
	targets := make([]CompileTarget, 0, len(files))
	for _, f := range files {
		dir := path.Dir(f)
		stem := strings.TrimSuffix(path.Base(f), path.Ext(f))

		var name string
		switch {
		case dir == ".":
			name = stem
		case perDir[dir] > 1:
			name = strings.ReplaceAll(dir, "/", "_") + "_" + stem
		default:
			name = strings.ReplaceAll(dir, "/", "_")
		}
		name = prefix + name

		unique := name
		for i := 2; used[unique]; i++ {
			unique = name + "_" + strconv.Itoa(i)
		}
		used[unique] = true

		targets = append(targets, CompileTarget{
			Name:        unique,
			Kind:        KindBin,
			ExtraSource: path.Join(testDir, f),
		})
	}
	return targets
}
