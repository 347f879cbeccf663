package gen

// Section is a model that renders itself into CMake command lines
type Section interface {
	Commands() []string
}

// Commands concatenates the commands of several sections into one
func Commands(sections ...Section) []string {
	var lines []string
	for _, s := range sections {
		lines = append(lines, s.Commands()...)
	}
	return lines
}
