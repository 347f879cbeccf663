package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderList(t *testing.T) {
	assert.Equal(t, `set(K "a" "b" )`, Render("set", List("K", "a", "b")))
	assert.Equal(t, `set(K)`, Render("set", List("K")))
}

func TestRenderScalar(t *testing.T) {
	assert.Equal(t, `set(K "v")`, Render("set", Scalar("K", "v")))
	assert.Equal(t, `set(K "")`, Render("set", Scalar("K", "")), "single render never filters")
}

func TestRenderAllSkipsEmptyScalars(t *testing.T) {
	lines := RenderAll("set", []Var{
		Scalar("A", "1"),
		Scalar("B", ""),
		List("C"),
		Scalar("D", "4"),
	})
	assert.Equal(t, []string{`set(A "1")`, `set(C)`, `set(D "4")`}, lines)
}

func TestAssemble(t *testing.T) {
	out := Assemble(
		[]string{`project(demo)`},
		[]string{`set(src_list "..\src\main.cpp" )`, `add_executable(demo ${src_list})`},
	)
	want := "project(demo)\n\n" +
		"set(src_list \"../src/main.cpp\" )\nadd_executable(demo ${src_list})\n\n"
	assert.Equal(t, want, out)
}
