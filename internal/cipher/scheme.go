package cipher

import (
	"fmt"
	"strings"
)

// Scheme identifies one of the classical ciphers.
type Scheme string

const (
	SchemeCaesar      Scheme = "caesar"
	SchemeVigenere    Scheme = "vigenere"
	SchemeXOR         Scheme = "xor"
	SchemeOneTimePad  Scheme = "otp"
	SchemeCBC         Scheme = "cbc"
	SchemeCBCVigenere Scheme = "cbc_vigenere"
)

// Schemes lists every scheme in menu order.
func Schemes() []Scheme {
	return []Scheme{SchemeCaesar, SchemeVigenere, SchemeXOR, SchemeOneTimePad, SchemeCBC, SchemeCBCVigenere}
}

// SingleByteKey reports whether the scheme uses only the first key byte.
func (s Scheme) SingleByteKey() bool {
	return s == SchemeCaesar || s == SchemeXOR
}

// Breakable reports whether a keyless attack exists for the scheme.
func (s Scheme) Breakable() bool {
	return s == SchemeCaesar || s == SchemeVigenere || s == SchemeXOR
}

func (s Scheme) String() string {
	return string(s)
}

var schemeAliases = map[string]Scheme{
	"c":            SchemeCaesar,
	"caesar":       SchemeCaesar,
	"v":            SchemeVigenere,
	"vigenere":     SchemeVigenere,
	"x":            SchemeXOR,
	"xor":          SchemeXOR,
	"o":            SchemeOneTimePad,
	"otp":          SchemeOneTimePad,
	"onetime":      SchemeOneTimePad,
	"one_time_pad": SchemeOneTimePad,
	"b":            SchemeCBC,
	"cbc":          SchemeCBC,
	"cbc_vigenere": SchemeCBCVigenere,
	"cbc-vigenere": SchemeCBCVigenere,
	"hybrid":       SchemeCBCVigenere,
}

// ParseScheme resolves a scheme from its name or single-letter menu code.
func ParseScheme(name string) (Scheme, error) {
	s, ok := schemeAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
	return s, nil
}
