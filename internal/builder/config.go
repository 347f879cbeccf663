package builder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"reflect"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/pelletier/go-toml/v2"
	"github.com/qobs-build/cmakegen/internal/builder/gen"
)

// SettingsFilename is the optional settings overlay in the project root
const SettingsFilename = "cmakegen.toml"

const (
	warnFlags  = "-Werror -Wall -Wextra -Wno-unused-parameter -Wno-unused-variable -Wno-unused-but-set-variable"
	codegen    = "-fPIC -pthread -fno-strict-aliasing -fno-delete-null-pointer-checks -fno-strict-overflow -fsigned-char"
	cFlags     = "-std=gnu17 -ggdb3 " + warnFlags + " " + codegen
	cxxFlags   = "-std=gnu++17 -ggdb3 " + warnFlags + " " + codegen
	separator  = "------------------------------\n"
	passMarker = " -> pass"
	failMarker = " -> fail"
)

// Settings is everything about the generated file that project_defs.mk
// doesn't describe: compiler and linker flags, CMake tools and test layout
type Settings struct {
	CMake   CMakeSection   `toml:"cmake"`
	Compile CompileSection `toml:"compile"`
	Link    LinkSection    `toml:"link"`
	Sources SourcesSection `toml:"sources"`
	Test    TestSection    `toml:"test"`
}

// CMakeSection defines the [cmake] section
type CMakeSection struct {
	AR            string `toml:"ar"`
	DllTool       string `toml:"dlltool"`
	Linker        string `toml:"linker"`
	MakeProgram   string `toml:"make-program"`
	InstallPrefix string `toml:"install-prefix"`
	Ranlib        string `toml:"ranlib"`
	Readelf       string `toml:"readelf"`
}

// LanguageSection defines the [compile.c] and [compile.cxx] sections
type LanguageSection struct {
	Compiler string            `toml:"compiler"` // "auto" searches CC/CXX and PATH
	AR       string            `toml:"ar"`
	Ranlib   string            `toml:"ranlib"`
	Flags    string            `toml:"flags"`
	Variants map[string]string `toml:"variants"`
}

// CompileSection defines the [compile] section
type CompileSection struct {
	C   LanguageSection `toml:"c"`
	CXX LanguageSection `toml:"cxx"`
}

// LinkSection defines the [link] section
type LinkSection struct {
	Kinds    []string          `toml:"kinds"`
	Flags    string            `toml:"flags"`
	Variants map[string]string `toml:"variants"`
}

// SourcesSection defines the [sources] section
type SourcesSection struct {
	Extensions []string `toml:"extensions"`
}

// TestSection defines the [test] section
type TestSection struct {
	Prefix     string `toml:"prefix"`
	Separator  string `toml:"separator"`
	PassMarker string `toml:"pass-marker"`
	FailMarker string `toml:"fail-marker"`
}

func (s TestSection) validate() error {
	for key, v := range map[string]string{
		"separator":   s.Separator,
		"pass-marker": s.PassMarker,
		"fail-marker": s.FailMarker,
	} {
		if v == "" {
			return fmt.Errorf("[test]: %s must not be empty", key)
		}
	}
	return nil
}

// DefaultSettings returns the settings used when no overlay exists
func DefaultSettings() Settings {
	return Settings{
		CMake: CMakeSection{InstallPrefix: "../build/"},
		Compile: CompileSection{
			C: LanguageSection{
				Flags: cFlags,
				Variants: map[string]string{
					"DEBUG":   "-O0 " + cFlags,
					"RELEASE": "-O2 " + cFlags,
				},
			},
			CXX: LanguageSection{
				Flags: cxxFlags,
				Variants: map[string]string{
					"DEBUG":   "-O0 " + cxxFlags,
					"RELEASE": "-O2 " + cxxFlags,
				},
			},
		},
		Link: LinkSection{
			Kinds: []string{"EXE", "MODULE", "SHARED", "STATIC"},
		},
		Sources: SourcesSection{Extensions: slices.Clone(DefaultSourceExtensions)},
		Test: TestSection{
			Prefix:     gen.TestPrefix,
			Separator:  separator,
			PassMarker: passMarker,
			FailMarker: failMarker,
		},
	}
}

// CacheEnv returns the global CMAKE_* settings for a variant
func (s Settings) CacheEnv(variant gen.Variant) gen.CacheEnv {
	return gen.CacheEnv{
		AR:            s.CMake.AR,
		BuildType:     variant,
		DllTool:       s.CMake.DllTool,
		Linker:        s.CMake.Linker,
		MakeProgram:   s.CMake.MakeProgram,
		InstallPrefix: s.CMake.InstallPrefix,
		Ranlib:        s.CMake.Ranlib,
		Readelf:       s.CMake.Readelf,
	}
}

func makeFlagSet(base string, variants map[string]string) (gen.FlagSet, error) {
	flags := gen.NewFlagSet(base)
	for name, v := range variants {
		variant, err := gen.ParseVariant(name)
		if err != nil {
			return flags, err
		}
		flags.Set(variant, v)
	}
	return flags, nil
}

// normalizeVariants upper-cases variant keys so "debug" overrides the
// default "DEBUG" entry instead of sitting beside it
func normalizeVariants(variants map[string]string) map[string]string {
	if variants == nil {
		return nil
	}
	out := make(map[string]string, len(variants))
	for _, k := range slices.Sorted(maps.Keys(variants)) {
		out[strings.ToUpper(k)] = variants[k]
	}
	return out
}

// CompileEnv returns the compiler settings for one language
func (s LanguageSection) CompileEnv(lang gen.Language) (gen.CompileEnv, error) {
	flags, err := makeFlagSet(s.Flags, s.Variants)
	if err != nil {
		return gen.CompileEnv{}, fmt.Errorf("[compile.%s]: %w", strings.ToLower(string(lang)), err)
	}
	compiler, err := resolveCompiler(s.Compiler, lang == gen.LangCXX)
	if err != nil {
		return gen.CompileEnv{}, err
	}
	return gen.CompileEnv{
		Languages: []gen.Language{lang},
		Compiler:  compiler,
		AR:        s.AR,
		Ranlib:    s.Ranlib,
		Flags:     flags,
	}, nil
}

// LinkEnv returns the linker settings for every configured link kind
func (s LinkSection) LinkEnv() (gen.LinkEnv, error) {
	flags, err := makeFlagSet(s.Flags, s.Variants)
	if err != nil {
		return gen.LinkEnv{}, fmt.Errorf("[link]: %w", err)
	}
	kinds := make([]gen.LinkKind, 0, len(s.Kinds))
	for _, k := range s.Kinds {
		kind := gen.LinkKind(strings.ToUpper(k))
		if !slices.Contains(gen.LinkKinds, kind) {
			return gen.LinkEnv{}, fmt.Errorf("[link]: unknown link kind %q", k)
		}
		kinds = append(kinds, kind)
	}
	return gen.LinkEnv{Kinds: kinds, Flags: flags}, nil
}

// fieldKey returns the TOML key a struct field is decoded from
func fieldKey(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	if name == "" {
		return f.Name
	}
	return name
}

// lookupKey finds key in raw, falling back to a case-insensitive match the
// way the TOML decoder does
func lookupKey(raw map[string]any, key string) (any, bool) {
	if v, ok := raw[key]; ok {
		return v, true
	}
	for k, v := range raw {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// mergeStructs merges the fields of src whose keys appear in raw into dst.
// Nested structs are merged field by field, maps key by key, slices and
// scalars are replaced. A key set to its zero value still overrides, so
// flags = "" clears the default flags.
func mergeStructs(dst, src any, raw map[string]any) error {
	dstVal := reflect.ValueOf(dst)
	if dstVal.Kind() != reflect.Pointer || dstVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dst must be a pointer to a struct")
	}

	dstElem := dstVal.Elem()
	srcVal := reflect.ValueOf(src)
	if srcVal.Kind() == reflect.Pointer {
		srcVal = srcVal.Elem()
	}
	if srcVal.Kind() != reflect.Struct {
		return fmt.Errorf("src must be a struct or a pointer to a struct")
	}
	if dstElem.Type() != srcVal.Type() {
		return fmt.Errorf("dst and src must be of the same struct type")
	}

	for i := range srcVal.NumField() {
		srcField := srcVal.Field(i)
		dstField := dstElem.Field(i)
		if !dstField.CanSet() {
			continue
		}
		rawField, present := lookupKey(raw, fieldKey(srcVal.Type().Field(i)))
		if !present {
			continue
		}

		switch dstField.Kind() {
		case reflect.Struct:
			sub, ok := rawField.(map[string]any)
			if !ok {
				return fmt.Errorf("%s: expected a table", fieldKey(srcVal.Type().Field(i)))
			}
			if err := mergeStructs(dstField.Addr().Interface(), srcField.Interface(), sub); err != nil {
				return err
			}
		case reflect.Map:
			merged := reflect.MakeMap(dstField.Type())
			if !dstField.IsNil() {
				for _, key := range dstField.MapKeys() {
					merged.SetMapIndex(key, dstField.MapIndex(key))
				}
			}
			if !srcField.IsNil() {
				for _, key := range srcField.MapKeys() {
					merged.SetMapIndex(key, srcField.MapIndex(key))
				}
			}
			dstField.Set(merged)
		default:
			dstField.Set(srcField)
		}
	}

	return nil
}

func mustMarshal(v any) string {
	b, err := toml.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// unmarshalConditionalSection parses a section whose sub-tables may be keyed
// by a boolean expression and merges it over dst: the plain keys first, then
// every sub-table whose expression evaluates to true, in sorted expression
// order
func unmarshalConditionalSection[T any](rawCfg map[string]any, name string, dst *T, env ConfigEnv) error {
	sectionData, ok := rawCfg[name]
	if !ok {
		return nil
	}

	sectionMap, ok := sectionData.(map[string]any)
	if !ok {
		return fmt.Errorf("invalid [%s] section format: expected a table", name)
	}

	baseFields := make(map[string]any)
	conditionalFields := make(map[string]map[string]any)

	for key, val := range sectionMap {
		subMap, isTable := val.(map[string]any)
		if !isTable {
			baseFields[key] = val
			continue
		}
		if _, err := expr.Compile(key, expr.Env(env), expr.AsBool()); err == nil {
			conditionalFields[key] = subMap
		} else {
			baseFields[key] = val
		}
	}

	if len(baseFields) > 0 {
		var base T
		if err := toml.Unmarshal([]byte(mustMarshal(baseFields)), &base); err != nil {
			return fmt.Errorf("failed to parse base [%s] section: %w", name, err)
		}
		if err := mergeStructs(dst, base, baseFields); err != nil {
			return fmt.Errorf("failed to merge base [%s] section: %w", name, err)
		}
	}

	for _, expression := range slices.Sorted(maps.Keys(conditionalFields)) {
		program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
		if err != nil {
			return fmt.Errorf("failed to compile expression for [%s.%q]: %w", name, expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return fmt.Errorf("failed to run expression for [%s.%q]: %w", name, expression, err)
		}
		if matched, ok := result.(bool); !ok || !matched {
			continue
		}

		var condSection T
		if err := toml.Unmarshal([]byte(mustMarshal(conditionalFields[expression])), &condSection); err != nil {
			return fmt.Errorf("failed to parse conditional section [%s.%q]: %w", name, expression, err)
		}
		if err := mergeStructs(dst, condSection, conditionalFields[expression]); err != nil {
			return fmt.Errorf("failed to merge conditional section [%s.%q]: %w", name, expression, err)
		}
	}

	return nil
}

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// evaluateString replaces every {{...}} expression in a string with its result
func evaluateString(s string, env ConfigEnv) (string, error) {
	var evalErr error
	out := exprRegex.ReplaceAllStringFunc(s, func(match string) string {
		if evalErr != nil {
			return match
		}
		expression := strings.TrimSpace(exprRegex.FindStringSubmatch(match)[1])
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			evalErr = fmt.Errorf("failed to compile expression %q: %w", expression, err)
			return match
		}
		result, err := expr.Run(program, env)
		if err != nil {
			evalErr = fmt.Errorf("failed to run expression %q: %w", expression, err)
			return match
		}
		return fmt.Sprint(result)
	})
	return out, evalErr
}

// processExpressions recursively walks the parsed TOML data and evaluates expressions in strings
func processExpressions(data any, env ConfigEnv) (any, error) {
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			processedVal, err := processExpressions(val, env)
			if err != nil {
				return nil, err
			}
			v[key] = processedVal
		}
		return v, nil
	case []any:
		for i, item := range v {
			processedItem, err := processExpressions(item, env)
			if err != nil {
				return nil, err
			}
			v[i] = processedItem
		}
		return v, nil
	case string:
		return evaluateString(v, env)
	default:
		return data, nil
	}
}

// ParseSettings parses a settings overlay and merges it over DefaultSettings
func ParseSettings(rdr io.Reader, env ConfigEnv) (Settings, error) {
	var rawConfig map[string]any
	dec := toml.NewDecoder(rdr)
	if err := dec.Decode(&rawConfig); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return Settings{}, errors.New(derr.String())
		}
		return Settings{}, err
	}

	processed, err := processExpressions(rawConfig, env)
	if err != nil {
		return Settings{}, fmt.Errorf("error processing expressions in settings: %w", err)
	}
	rawConfig = processed.(map[string]any)

	settings := DefaultSettings()
	if err := unmarshalConditionalSection(rawConfig, "cmake", &settings.CMake, env); err != nil {
		return Settings{}, err
	}
	if err := unmarshalConditionalSection(rawConfig, "compile", &settings.Compile, env); err != nil {
		return Settings{}, err
	}
	if err := unmarshalConditionalSection(rawConfig, "link", &settings.Link, env); err != nil {
		return Settings{}, err
	}
	if err := unmarshalConditionalSection(rawConfig, "sources", &settings.Sources, env); err != nil {
		return Settings{}, err
	}
	if err := unmarshalConditionalSection(rawConfig, "test", &settings.Test, env); err != nil {
		return Settings{}, err
	}

	settings.Compile.C.Variants = normalizeVariants(settings.Compile.C.Variants)
	settings.Compile.CXX.Variants = normalizeVariants(settings.Compile.CXX.Variants)
	settings.Link.Variants = normalizeVariants(settings.Link.Variants)

	if err := settings.Test.validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// LoadSettings reads the overlay at path, falling back to DefaultSettings
// when the file doesn't exist
func LoadSettings(path string, env ConfigEnv) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, err
	}
	defer f.Close()

	settings, err := ParseSettings(bufio.NewReader(f), env)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

// ConfigEnv is what settings expressions can see
type ConfigEnv struct {
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	Environ    map[string]string `expr:"environ"`
	Variant    string            `expr:"variant"`
}

func NewConfigEnv(variant gen.Variant) ConfigEnv {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			environ[k] = v
		}
	}

	return ConfigEnv{
		TargetOS:   runtime.GOOS,
		TargetArch: runtime.GOARCH,
		Environ:    environ,
		Variant:    variant.String(),
	}
}
