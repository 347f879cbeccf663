// cmakegen init [name], cmakegen new [path]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/qobs-build/cmakegen/internal/builder"
	"github.com/qobs-build/cmakegen/internal/builder/gen"
	"github.com/qobs-build/cmakegen/internal/msg"
	"github.com/spf13/cobra"
)

func writefile(content string, elem ...string) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = os.WriteFile(path, []byte(content), 0o644); err != nil {
			msg.Fatal("create file %s: %v", path, err)
		}
		fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	}
}

func mkdir(elem ...string) {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		msg.Fatal("mkdir %s: %v", path, err)
	}
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "cmakegen"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

func projectDefs(name string, kind gen.Kind) string {
	return `MODULE_NAME := ` + name + `
# bin: executable, slib: static library, dlib: shared library
MODULE_TYPE := ` + string(kind) + `
CMAKE_VERSION := 3.10
# libraries under lib/<name>/{include,lib}, separated by spaces
MODULE_DEPEND_LIB :=
`
}

const testHeader = `#ifndef TEST_H
#define TEST_H

#include <iostream>
#include <string>

inline bool TestExpect(bool ok, const std::string &test_name)
{
    std::cout << test_name << (ok ? " : -> passed\n" : " : -> failed\n");
    std::cout << "------------------------------\n";
    return ok;
}

#endif
`

// initIn initializes a module in an existing directory
func initIn(dir, name string, kind gen.Kind) {
	writefile(projectDefs(name, kind), dir, builder.DefinitionFilename)

	mkdir(dir, "src")
	mkdir(dir, "lib")

	if kind.IsLib() {
		mkdir(dir, "include")
		mkdir(dir, "test", "example")

		writefile(`#include "../include/`+name+`.h"

int `+name+`_add(int a, int b)
{
    return a + b;
}
`, dir, "src", name+".cpp")

		writefile(`#ifndef `+strings.ToUpper(name)+`_H
#define `+strings.ToUpper(name)+`_H

int `+name+`_add(int a, int b);

#endif
`, dir, "include", name+".h")

		writefile(testHeader, dir, "test", "test.h")

		writefile(`#include "../test.h"
#include "../../include/`+name+`.h"

int main()
{
    TestExpect(`+name+`_add(1, 2) == 3, "`+name+`_add");
    return 0;
}
`, dir, "test", "example", "main.cpp")
	} else {
		writefile(`#include <iostream>

int main()
{
    std::cout << "Hello, World!\n";
    return 0;
}
`, dir, "src", "main.cpp")
	}

	writefile(builder.BuildDirname+"/\n", dir, ".gitignore")

	programName := getProgramName()
	fmt.Printf("You can now do %s to build and run, or %s for a release build.\n",
		color.HiCyanString(programName+" -C "+dir), color.HiCyanString(programName+" release -C "+dir))
}

var flagType EnumValue = NewEnumValue(string(gen.KindBin), map[string]string{
	string(gen.KindBin):       "Executable",
	string(gen.KindStaticLib): "Static library with tests",
	string(gen.KindSharedLib): "Shared library with tests",
})

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a new module in the current directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initIn(".", args[0], gen.Kind(flagType.Value()))
	},
}

var newCmd = &cobra.Command{
	Use:   "new [path]",
	Short: "Create a new module in a new directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mkdir(args[0])
		initIn(args[0], filepath.Base(args[0]), gen.Kind(flagType.Value()))
	},
}

func init() {
	for _, c := range []*cobra.Command{initCmd, newCmd} {
		c.Flags().VarP(&flagType, "type", "t", "Module type, one of "+flagType.HelpString())
		c.RegisterFlagCompletionFunc("type", flagType.CompletionFunc())
		rootCmd.AddCommand(c)
	}
}
