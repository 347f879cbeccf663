package main

import "github.com/qobs-build/cmakegen/cmd"

func main() {
	cmd.Execute()
}
