package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/qobs-build/cmakegen/internal/builder/gen"
	"github.com/qobs-build/cmakegen/internal/msg"
	"golang.org/x/sync/errgroup"
)

// PostMode selects how far the post step goes after CMakeLists.txt is written
type PostMode string

const (
	PostNone      PostMode = "none"      // only generate
	PostConfigure PostMode = "configure" // cmake .
	PostBuild     PostMode = "build"     // cmake . && make
	PostRun       PostMode = "run"       // build, then run the binary or the tests
)

var postOrder = []PostMode{PostNone, PostConfigure, PostBuild, PostRun}

// reaches reports whether mode m includes step
func (m PostMode) reaches(step PostMode) bool {
	return slices.Index(postOrder, m) >= slices.Index(postOrder, step)
}

var errTestsFailed = errors.New("some tests failed")

func runTool(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &msg.IndentWriter{Indent: "    ", W: os.Stdout}
	cmd.Stderr = &msg.IndentWriter{Indent: "    ", W: os.Stderr}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// PostProcess configures and builds the generated project with cmake and
// make, then runs the module binary or every test binary
func (b *Builder) PostProcess(ctx context.Context, def Definition) error {
	if !b.opts.Post.reaches(PostConfigure) {
		return nil
	}
	buildDir := b.buildDir()

	msg.Info("running cmake")
	if err := runTool(ctx, buildDir, "cmake", "."); err != nil {
		return err
	}

	if def.Kind().IsLib() {
		if err := b.exportHeaders(); err != nil {
			return err
		}
	}

	if !b.opts.Post.reaches(PostBuild) {
		return nil
	}
	msg.Info("running make")
	if err := runTool(ctx, buildDir, "make", "-j"+strconv.Itoa(b.opts.Jobs)); err != nil {
		return err
	}

	if !b.opts.Post.reaches(PostRun) {
		return nil
	}
	if def.Kind() == gen.KindBin {
		return b.runBinary(ctx, def.Name())
	}
	return b.runTests(ctx)
}

// exportHeaders replaces build/output/include with a copy of include/
func (b *Builder) exportHeaders() error {
	dst := filepath.Join(b.buildDir(), "output", includeDirname)
	if err := os.RemoveAll(dst); err != nil {
		return err
	}
	src := filepath.Join(b.basedir, includeDirname)
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		msg.Warn("library has no %s directory to export", includeDirname)
		return nil
	}
	return os.CopyFS(dst, os.DirFS(src))
}

func executableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func (b *Builder) runBinary(ctx context.Context, name string) error {
	binary := filepath.Join(b.buildDir(), "output", "bin", executableName(name))
	msg.Info("running %s", name)

	cmd := exec.CommandContext(ctx, binary)
	cmd.Dir = b.buildDir()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}

// collectTests lists the test executables in dir by name
func collectTests(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var tests []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			tests = append(tests, e.Name())
		}
	}
	return tests, nil
}

// runTestBinaries runs every test in dir with at most jobs running at once.
// Results keep the order of tests.
func runTestBinaries(ctx context.Context, dir string, tests []string, jobs int) []TestResult {
	results := make([]TestResult, len(tests))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)
	for i, name := range tests {
		eg.Go(func() error {
			cmd := exec.CommandContext(ctx, filepath.Join(dir, name))
			cmd.Dir = dir
			var out bytes.Buffer
			cmd.Stdout = &out
			cmd.Stderr = &out
			err := cmd.Run()
			results[i] = TestResult{Name: name, Output: out.String(), Err: err}
			return nil
		})
	}
	eg.Wait()

	return results
}

func (b *Builder) runTests(ctx context.Context) error {
	dir := filepath.Join(b.buildDir(), "output", "test")
	tests, err := collectTests(dir)
	if errors.Is(err, os.ErrNotExist) {
		msg.Warn("no test binaries were built")
		return nil
	} else if err != nil {
		return err
	}

	msg.Info("running %d tests", len(tests))
	results := runTestBinaries(ctx, dir, tests, b.opts.Jobs)
	for i, res := range results {
		fmt.Printf("----- test_%d : %s -----\n", i, res.Name)
		w := &msg.IndentWriter{Indent: "    ", W: os.Stdout}
		fmt.Fprint(w, res.Output)
		if res.Output != "" && !strings.HasSuffix(res.Output, "\n") {
			fmt.Println()
		}
		if res.Err != nil {
			msg.Error("running %s: %v", res.Name, res.Err)
		}
	}

	report := NewReport(results, b.settings.Test)
	report.Print(os.Stdout)
	if report.Failed() {
		return errTestsFailed
	}
	return nil
}
