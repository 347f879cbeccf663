package gen

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errUnknownVariant = errors.New("unknown build variant")
	errUnknownKind    = errors.New("unknown module type")
)

// Variant is a CMake build configuration
type Variant int

const (
	Debug Variant = iota
	Release
	RelWithDebInfo
	MinSizeRel
)

// Variants lists every build variant in emission order
var Variants = []Variant{Debug, Release, RelWithDebInfo, MinSizeRel}

var variantNames = [...]string{"DEBUG", "RELEASE", "RELWITHDEBINFO", "MINSIZEREL"}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// ParseVariant parses a variant name case-insensitively
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants {
		if strings.EqualFold(s, v.String()) {
			return v, nil
		}
	}
	return Debug, fmt.Errorf("%w %q, expected one of %s", errUnknownVariant, s, strings.Join(variantNames[:], ", "))
}

// Kind is the artifact a module produces
type Kind string

const (
	KindBin       Kind = "bin"
	KindStaticLib Kind = "slib"
	KindSharedLib Kind = "dlib"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindBin, KindStaticLib, KindSharedLib:
		return k, nil
	}
	return "", fmt.Errorf("%w %q, expected one of bin, slib, dlib", errUnknownKind, s)
}

// IsLib reports whether the kind is a static or shared library
func (k Kind) IsLib() bool { return k == KindStaticLib || k == KindSharedLib }
