package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/qobs-build/cmakegen/internal/builder/gen"
	"github.com/qobs-build/cmakegen/internal/msg"
)

const (
	// BuildDirname is where CMakeLists.txt and every build output go
	BuildDirname = "build"
	// BuildFilename is the generated CMake file inside BuildDirname
	BuildFilename = "CMakeLists.txt"

	sourceDirname  = "src"
	testDirname    = "test"
	libDirname     = "lib"
	includeDirname = "include"
)

// Options controls a Builder
type Options struct {
	SettingsPath string // defaults to <root>/cmakegen.toml
	Post         PostMode
	Jobs         int
	Diff         bool
}

// Builder turns the project_defs.mk of one module into build/CMakeLists.txt
type Builder struct {
	basedir  string
	opts     Options
	settings Settings

	// PreHook runs before project_defs.mk is read
	PreHook func() error
	// PostHook runs after CMakeLists.txt is written
	PostHook func(ctx context.Context, def Definition) error
}

func NewBuilderInDirectory(path string, opts Options) (*Builder, error) {
	var err error
	path, err = filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", path)
	}

	if opts.SettingsPath == "" {
		opts.SettingsPath = filepath.Join(path, SettingsFilename)
	}
	if opts.Post == "" {
		opts.Post = PostRun
	}
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}

	b := &Builder{basedir: path, opts: opts, settings: DefaultSettings()}
	b.PreHook = func() error {
		msg.Info("preparing %s", b.basedir)
		return nil
	}
	b.PostHook = b.PostProcess
	return b, nil
}

func (b *Builder) buildDir() string { return filepath.Join(b.basedir, BuildDirname) }

// BuildFile returns the path of the generated CMakeLists.txt
func (b *Builder) BuildFile() string { return filepath.Join(b.buildDir(), BuildFilename) }

// Clean removes the build directory of the project at path, if any
func Clean(path string) error {
	buildDir := filepath.Join(path, BuildDirname)
	if _, err := os.Stat(buildDir); errors.Is(err, os.ErrNotExist) {
		msg.Info("nothing to clean in %s", path)
		return nil
	}
	if err := os.RemoveAll(buildDir); err != nil {
		return err
	}
	msg.Info("cleaned %s", filepath.ToSlash(buildDir))
	return nil
}

// prepareBuildDir creates build/ and copies lib/ into it on first use
func (b *Builder) prepareBuildDir() error {
	if err := os.MkdirAll(b.buildDir(), 0o755); err != nil {
		return err
	}

	src := filepath.Join(b.basedir, libDirname)
	dst := filepath.Join(b.buildDir(), libDirname)
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if _, err := os.Stat(dst); err == nil {
		return nil
	}
	if err := os.CopyFS(dst, os.DirFS(src)); err != nil {
		return fmt.Errorf("copy %s: %w", libDirname, err)
	}
	return nil
}

// LoadDefinition parses and validates the project's project_defs.mk
func (b *Builder) LoadDefinition() (Definition, error) {
	def, err := ParseDefinitionFromFile(filepath.Join(b.basedir, DefinitionFilename))
	if err != nil {
		return Definition{}, err
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// Model is everything written into CMakeLists.txt
type Model struct {
	Project   gen.ProjectEnv
	Cache     gen.CacheEnv
	Compile   []gen.CompileEnv
	Link      gen.LinkEnv
	Directory gen.DirectoryEnv
	Target    gen.CompileTarget
	Tests     *gen.TestSuite // nil unless the module is a library
}

// Generate renders the model in its fixed section order
func (m *Model) Generate() string {
	settings := []gen.Section{m.Cache}
	for _, c := range m.Compile {
		settings = append(settings, c)
	}
	settings = append(settings, m.Link)

	sections := [][]string{
		m.Project.Commands(),
		gen.Commands(settings...),
		m.Directory.Commands(),
		m.Target.Commands(),
	}
	if m.Tests != nil {
		sections = append(sections, m.Tests.Commands())
	}
	return gen.Assemble(sections...)
}

// BuildModel assembles the model for a validated definition
func (b *Builder) BuildModel(def Definition, variant gen.Variant) (*Model, error) {
	settings, err := LoadSettings(b.opts.SettingsPath, NewConfigEnv(variant))
	if err != nil {
		return nil, err
	}
	b.settings = settings

	cEnv, err := settings.Compile.C.CompileEnv(gen.LangC)
	if err != nil {
		return nil, err
	}
	cxxEnv, err := settings.Compile.CXX.CompileEnv(gen.LangCXX)
	if err != nil {
		return nil, err
	}
	linkEnv, err := settings.Link.LinkEnv()
	if err != nil {
		return nil, err
	}

	sources, err := DiscoverSources(filepath.Join(b.basedir, sourceDirname), settings.Sources.Extensions)
	if err != nil {
		return nil, fmt.Errorf("failed to collect sources: %w", err)
	}
	for i, src := range sources {
		sources[i] = path.Join(gen.SourceDir, src)
	}

	libs := def.Libraries()
	m := &Model{
		Project:   gen.ProjectEnv{CMakeVersion: def.CMakeVersion(), Name: def.Name()},
		Cache:     settings.CacheEnv(variant),
		Compile:   []gen.CompileEnv{cEnv, cxxEnv},
		Link:      linkEnv,
		Directory: gen.DirectoryEnv{Libraries: libs, Sources: sources},
		Target: gen.CompileTarget{
			Name:       def.Name(),
			Kind:       def.Kind(),
			Libraries:  libs,
			LibraryDir: gen.LibraryPath,
		},
	}

	if def.Kind().IsLib() {
		testFiles, err := DiscoverSources(filepath.Join(b.basedir, testDirname), settings.Sources.Extensions)
		if errors.Is(err, os.ErrNotExist) {
			msg.Warn("no %s directory, no test targets generated", testDirname)
		} else if err != nil {
			return nil, fmt.Errorf("failed to collect tests: %w", err)
		}
		m.Tests = &gen.TestSuite{Targets: gen.TestTargets(settings.Test.Prefix, gen.TestDir, testFiles, def.Name())}
	}

	return m, nil
}

func printDefinition(def Definition) {
	msg.Info("parsed %s", DefinitionFilename)
	for _, key := range def.Keys() {
		v, _ := def.Get(key)
		fmt.Printf("    %s: %s\n", key, v)
	}
}

// Build runs the whole pipeline: pre hook, definition, model, emission and post hook
func (b *Builder) Build(ctx context.Context, variant gen.Variant) error {
	if b.PreHook != nil {
		if err := b.PreHook(); err != nil {
			return err
		}
	}
	if err := b.prepareBuildDir(); err != nil {
		return err
	}

	def, err := b.LoadDefinition()
	if err != nil {
		return err
	}
	printDefinition(def)

	model, err := b.BuildModel(def, variant)
	if err != nil {
		return err
	}

	out := model.Generate()
	buildFile := b.BuildFile()
	if b.opts.Diff {
		previous, err := os.ReadFile(buildFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		printDiff(string(previous), out)
	}
	if err := os.WriteFile(buildFile, []byte(out), 0o644); err != nil {
		return err
	}
	msg.Info("wrote %s (%s)", filepath.ToSlash(buildFile), variant)

	if b.PostHook != nil {
		return b.PostHook(ctx, def)
	}
	return nil
}
