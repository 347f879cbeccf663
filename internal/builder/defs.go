package builder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/qobs-build/cmakegen/internal/builder/gen"
)

// DefinitionFilename is the module definition read from the project root
const DefinitionFilename = "project_defs.mk"

const (
	KeyModuleName   = "MODULE_NAME"
	KeyModuleType   = "MODULE_TYPE"
	KeyCMakeVersion = "CMAKE_VERSION"
	KeyDependLib    = "MODULE_DEPEND_LIB"
)

var errMissingKey = errors.New("missing required key")

// ParseKeyValue parses `KEY := value` lines. Backslash-newline pairs are
// removed and tabs become spaces before splitting. Lines without `:=` are
// ignored and later keys overwrite earlier ones.
func ParseKeyValue(text string) map[string]string {
	values, _ := parseKeyValueOrdered(text)
	return values
}

func parseKeyValueOrdered(text string) (map[string]string, []string) {
	text = strings.ReplaceAll(text, "\\\n", "")
	text = strings.ReplaceAll(text, "\t", " ")

	values := make(map[string]string)
	var order []string
	for line := range strings.SplitSeq(text, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if _, seen := values[key]; !seen {
			order = append(order, key)
		}
		values[key] = strings.TrimSpace(value)
	}
	return values, order
}

// Definition is a parsed project_defs.mk. It is read-only after parsing.
type Definition struct {
	values map[string]string
	order  []string
}

func ParseDefinition(rdr io.Reader) (Definition, error) {
	data, err := io.ReadAll(rdr)
	if err != nil {
		return Definition{}, err
	}
	values, order := parseKeyValueOrdered(string(data))
	return Definition{values: values, order: order}, nil
}

// ParseDefinitionFromFile parses a definition file from a filepath
func ParseDefinitionFromFile(path string) (Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return Definition{}, err
	}
	defer f.Close()

	return ParseDefinition(f)
}

// Get returns the raw value of a key
func (d Definition) Get(key string) (string, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Keys returns every key in order of first appearance
func (d Definition) Keys() []string {
	return slices.Clone(d.order)
}

func (d Definition) Name() string         { return d.values[KeyModuleName] }
func (d Definition) CMakeVersion() string { return d.values[KeyCMakeVersion] }

// Kind returns the module type. Call Validate first.
func (d Definition) Kind() gen.Kind { return gen.Kind(d.values[KeyModuleType]) }

// Libraries returns MODULE_DEPEND_LIB split on whitespace, in file order
func (d Definition) Libraries() []string {
	return strings.Fields(d.values[KeyDependLib])
}

// Validate checks that the required keys exist and MODULE_TYPE is known
func (d Definition) Validate() error {
	for _, key := range []string{KeyModuleName, KeyModuleType, KeyCMakeVersion, KeyDependLib} {
		if _, ok := d.values[key]; !ok {
			return fmt.Errorf("%s: %w %s", DefinitionFilename, errMissingKey, key)
		}
	}
	if _, err := gen.ParseKind(d.values[KeyModuleType]); err != nil {
		return fmt.Errorf("%s: %w", DefinitionFilename, err)
	}
	return nil
}
