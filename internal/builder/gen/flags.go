package gen

// FlagSet is a base flag string with optional per-variant overrides
type FlagSet struct {
	Base      string
	overrides map[Variant]string
}

func NewFlagSet(base string) FlagSet {
	return FlagSet{Base: base}
}

// Set configures the override for a variant
func (f *FlagSet) Set(v Variant, flags string) {
	if f.overrides == nil {
		f.overrides = make(map[Variant]string)
	}
	f.overrides[v] = flags
}

// Override returns the override for a variant and whether it was set
func (f FlagSet) Override(v Variant) (string, bool) {
	flags, ok := f.overrides[v]
	return flags, ok
}

// Vars returns key = base followed by key_<VARIANT> for each configured override
func (f FlagSet) Vars(key string) []Var {
	vars := []Var{Scalar(key, f.Base)}
	for _, v := range Variants {
		if flags, ok := f.overrides[v]; ok {
			vars = append(vars, Scalar(key+"_"+v.String(), flags))
		}
	}
	return vars
}
