package gen

import "path"

// ProjectEnv declares the project identity
type ProjectEnv struct {
	CMakeVersion string
	Name         string
}

func (e ProjectEnv) Commands() []string {
	return []string{
		Bare("cmake_minimum_required", "VERSION "+e.CMakeVersion),
		Bare("project", e.Name),
	}
}

// CacheEnv holds the global CMAKE_* tool and build settings
type CacheEnv struct {
	AR            string
	BuildType     Variant
	DllTool       string
	Linker        string
	MakeProgram   string
	InstallPrefix string
	Ranlib        string
	Readelf       string
}

func (e CacheEnv) Vars() []Var {
	return []Var{
		Scalar("CMAKE_AR", e.AR),
		Scalar("CMAKE_BUILD_TYPE", e.BuildType.String()),
		Scalar("CMAKE_DLLTOOL", e.DllTool),
		Scalar("CMAKE_LINKER", e.Linker),
		Scalar("CMAKE_MAKE_PROGRAM", e.MakeProgram),
		Scalar("CMAKE_INSTALL_PREFIX", e.InstallPrefix),
		Scalar("CMAKE_RANLIB", e.Ranlib),
		Scalar("CMAKE_READELF", e.Readelf),
	}
}

func (e CacheEnv) Commands() []string { return RenderAll("set", e.Vars()) }

// Language is a CMake language tag
type Language string

const (
	LangC   Language = "C"
	LangCXX Language = "CXX"
)

// CompileEnv holds compiler settings applied to each of its languages
type CompileEnv struct {
	Languages []Language
	Compiler  string
	AR        string
	Ranlib    string
	Flags     FlagSet
}

func (e CompileEnv) Vars() []Var {
	var vars []Var
	for _, lang := range e.Languages {
		prefix := "CMAKE_" + string(lang) + "_"
		vars = append(vars,
			Scalar(prefix+"COMPILER", e.Compiler),
			Scalar(prefix+"COMPILER_AR", e.AR),
			Scalar(prefix+"COMPILER_RANLIB", e.Ranlib),
		)
		vars = append(vars, e.Flags.Vars(prefix+"FLAGS")...)
	}
	return vars
}

func (e CompileEnv) Commands() []string { return RenderAll("set", e.Vars()) }

// LinkKind is a CMake link target type
type LinkKind string

const (
	LinkExe    LinkKind = "EXE"
	LinkModule LinkKind = "MODULE"
	LinkShared LinkKind = "SHARED"
	LinkStatic LinkKind = "STATIC"
)

// LinkKinds lists every link kind in emission order
var LinkKinds = []LinkKind{LinkExe, LinkModule, LinkShared, LinkStatic}

// LinkEnv holds linker flags applied to each of its link kinds
type LinkEnv struct {
	Kinds []LinkKind
	Flags FlagSet
}

func (e LinkEnv) Vars() []Var {
	var vars []Var
	for _, kind := range e.Kinds {
		vars = append(vars, e.Flags.Vars("CMAKE_"+string(kind)+"_LINKER_FLAGS")...)
	}
	return vars
}

func (e LinkEnv) Commands() []string { return RenderAll("set", e.Vars()) }

// Paths are relative to the build directory, where CMakeLists.txt lives.
const (
	BinaryDir      = "../build"
	SourceDir      = "../src"
	TestDir        = "../test"
	LibraryPath    = "lib"
	ExecOutputPath = "../build/output/bin"
	LibOutputPath  = "../build/output/lib"
	TestOutputPath = "../build/output/test"
)

// SourceListVar names the aggregate source list every target compiles
const SourceListVar = "src_list"

// DirectoryEnv holds the directory layout, the library list and the
// discovered sources of the module
type DirectoryEnv struct {
	Libraries []string
	Sources   []string
}

func (e DirectoryEnv) Vars() []Var {
	return []Var{
		Scalar("CMAKE_CURRENT_BINARY_DIR", BinaryDir),
		Scalar("CMAKE_CURRENT_SOURCE_DIR", SourceDir),
		Scalar("CMAKE_LIBRARY_PATH", LibraryPath),
		Scalar("EXECUTABLE_OUTPUT_PATH", ExecOutputPath),
		Scalar("LIBRARY_OUTPUT_PATH", LibOutputPath),
	}
}

func (e DirectoryEnv) Commands() []string {
	lines := RenderAll("set", e.Vars())
	lines = append(lines, Render("set", List(SourceListVar, e.Sources...)))
	for _, lib := range e.Libraries {
		lines = append(lines, Bare("include_directories", path.Join(LibraryPath, lib, "include")))
	}
	return lines
}
