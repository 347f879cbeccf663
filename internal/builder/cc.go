package builder

import (
	"fmt"
	"os"
	"os/exec"
)

// compilerAuto asks for the compiler to be located on this machine
const compilerAuto = "auto"

var (
	commonCCompilers   = []string{"clang", "gcc", "icx", "icc", "tcc", "cl"}
	commonCxxCompilers = []string{"clang++", "g++", "clang", "gcc", "icpx", "icx", "icpc", "icc", "cl"}
)

// findCompiler attempts to find a suitable C or C++ compiler on the system
func findCompiler(needCxx bool) string {
	cc := os.Getenv("CC")
	cxx := os.Getenv("CXX")

	if needCxx && cxx != "" {
		return cxx
	}
	if !needCxx && cc != "" {
		return cc
	}

	compilersToTry := commonCCompilers
	if needCxx {
		compilersToTry = commonCxxCompilers
	}

	for _, compiler := range compilersToTry {
		path, err := exec.LookPath(compiler)
		if err == nil {
			return path
		}
	}

	return ""
}

// resolveCompiler turns a configured compiler value into the path written to
// CMAKE_<LANG>_COMPILER. Empty leaves the choice to CMake.
func resolveCompiler(value string, needCxx bool) (string, error) {
	if value != compilerAuto {
		return value, nil
	}
	if path := findCompiler(needCxx); path != "" {
		return path, nil
	}
	lang := "C"
	if needCxx {
		lang = "C++"
	}
	return "", fmt.Errorf("compiler = %q but no %s compiler was found (set CC/CXX or install one)", compilerAuto, lang)
}
