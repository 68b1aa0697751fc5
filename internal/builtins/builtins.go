// Package builtins loads the bundled, versioned signature resource naming
// each builtin function's FQSEN and its parameter and return union types.
// The resource is YAML, parsed with gopkg.in/yaml.v3, and is
// schema-validated with github.com/xeipuuv/gojsonschema before
// internal/codebase is allowed to trust it.
package builtins

import (
	"embed"
	"fmt"

	"github.com/tliron/commonlog"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
	"go.uber.org/multierr"
)

//go:embed signatures.yaml schema.json
var bundle embed.FS

var log = commonlog.GetLoggerf("ward.builtins")

// Param describes one formal parameter of a built-in signature.
type Param struct {
	Name     string
	Type     string
	Optional bool
	Variadic bool
}

// Signature is one bundled function's parameter and return type text,
// ready to be parsed with types.FromStringInContext under the global
// namespace by internal/codebase at construction time.
type Signature struct {
	Name    string
	Params  []Param
	Return  string
	Special int // 1-4, matches internal/argcheck's ParamSpecial1..4 hand-coded cases; 0 if none
}

type rawParam struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Optional bool   `yaml:"optional"`
	Variadic bool   `yaml:"variadic"`
}

type rawSignature struct {
	Name    string     `yaml:"name"`
	Params  []rawParam `yaml:"params"`
	Return  string     `yaml:"return"`
	Special int        `yaml:"special"`
}

type rawBundle struct {
	Functions []rawSignature `yaml:"functions"`
}

// Load reads, schema-validates, and decodes the embedded signature bundle.
// Validation failures on individual entries are aggregated with multierr
// and returned alongside whatever valid signatures remain, so a caller can
// choose to proceed in a degraded mode or fail hard.
func Load() (map[string]Signature, error) {
	raw, err := bundle.ReadFile("signatures.yaml")
	if err != nil {
		return nil, fmt.Errorf("builtins: read signatures.yaml: %w", err)
	}
	schemaRaw, err := bundle.ReadFile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("builtins: read schema.json: %w", err)
	}

	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("builtins: parse signatures.yaml: %w", err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaRaw)
	docLoader := gojsonschema.NewGoLoader(generic)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("builtins: schema validation error: %w", err)
	}

	var verr error
	if !result.Valid() {
		for _, e := range result.Errors() {
			verr = multierr.Append(verr, fmt.Errorf("builtins: signatures.yaml invalid: %s", e))
		}
		log.Warningf("signature bundle failed schema validation: %d error(s)", len(result.Errors()))
	}

	var decoded rawBundle
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, multierr.Append(verr, fmt.Errorf("builtins: decode signatures.yaml: %w", err))
	}

	out := make(map[string]Signature, len(decoded.Functions))
	for _, f := range decoded.Functions {
		if f.Name == "" {
			verr = multierr.Append(verr, fmt.Errorf("builtins: signature with empty name skipped"))
			continue
		}
		sig := Signature{Name: f.Name, Return: f.Return, Special: f.Special}
		for _, p := range f.Params {
			sig.Params = append(sig.Params, Param{Name: p.Name, Type: p.Type, Optional: p.Optional, Variadic: p.Variadic})
		}
		out[normalizeKey(f.Name)] = sig
	}

	log.Infof("loaded %d built-in signatures", len(out))
	return out, verr
}

func normalizeKey(name string) string {
	// Built-in function names are case-insensitive, like classes.
	b := []byte(name)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Lookup is a convenience over a loaded map, tolerant of casing.
func Lookup(signatures map[string]Signature, name string) (Signature, bool) {
	sig, ok := signatures[normalizeKey(name)]
	return sig, ok
}
