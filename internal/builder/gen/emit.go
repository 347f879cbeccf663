package gen

import "strings"

// Var is a single CMake variable, either a scalar or an ordered list
type Var struct {
	Key    string
	Value  string
	Items  []string
	IsList bool
}

func Scalar(key, value string) Var { return Var{Key: key, Value: value} }

func List(key string, items ...string) Var { return Var{Key: key, Items: items, IsList: true} }

// Render renders one command. List items are quoted and each followed by a
// space, an empty list renders as verb(key). Scalars are always quoted.
func Render(verb string, v Var) string {
	var sb strings.Builder
	write(&sb, verb, "(", v.Key)
	if v.IsList {
		if len(v.Items) > 0 {
			sb.WriteByte(' ')
			for _, item := range v.Items {
				write(&sb, `"`, item, `" `)
			}
		}
	} else {
		write(&sb, ` "`, v.Value, `"`)
	}
	sb.WriteByte(')')
	return sb.String()
}

// RenderAll renders vars in order, skipping empty scalars
func RenderAll(verb string, vars []Var) []string {
	lines := make([]string, 0, len(vars))
	for _, v := range vars {
		if !v.IsList && v.Value == "" {
			continue
		}
		lines = append(lines, Render(verb, v))
	}
	return lines
}

// Bare renders verb(args) with no quoting
func Bare(verb, args string) string {
	return Render(verb, List(args))
}

var pathNormalizer = strings.NewReplacer(`\`, "/")

// Assemble joins sections into the final file text. Every section is
// followed by a blank line and backslashes become forward slashes.
func Assemble(sections ...[]string) string {
	var sb strings.Builder
	for _, section := range sections {
		for _, line := range section {
			writeln(&sb, pathNormalizer.Replace(line))
		}
		writeln(&sb)
	}
	return sb.String()
}
