package runtime

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/compiler"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// StaticConfig is the YAML form of a static context:
//
//	base_uri: http://example.com/
//	default_element_namespace: urn:ui
//	default_collation: urn:platynui:collation:simple-case
//	namespaces:
//	  ui: urn:ui
//	variables: [limit, "ui:root", "{urn:other}x"]
//
// Variable names are lexical QNames resolved against namespaces, or Clark
// names.
type StaticConfig struct {
	BaseURI                  string            `yaml:"base_uri"`
	DefaultFunctionNamespace string            `yaml:"default_function_namespace"`
	DefaultElementNamespace  string            `yaml:"default_element_namespace"`
	DefaultCollation         string            `yaml:"default_collation"`
	Namespaces               map[string]string `yaml:"namespaces"`
	Variables                []string          `yaml:"variables"`
}

// LoadStaticConfig decodes a YAML document from r into a static context.
// Unknown keys are rejected.
func LoadStaticConfig(r io.Reader) (*compiler.StaticContext, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading static config: %w", err)
	}
	return ParseStaticConfig(data)
}

// ParseStaticConfig is LoadStaticConfig over a byte slice.
func ParseStaticConfig(data []byte) (*compiler.StaticContext, error) {
	var cfg StaticConfig
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("decoding static config: %w", err)
	}
	return cfg.StaticContext()
}

// StaticContext builds the static context described by cfg.
func (cfg StaticConfig) StaticContext() (*compiler.StaticContext, error) {
	sc := compiler.NewStaticContext()
	if cfg.BaseURI != "" {
		sc = sc.WithBaseURI(cfg.BaseURI)
	}
	if cfg.DefaultFunctionNamespace != "" {
		sc = sc.WithDefaultFunctionNamespace(cfg.DefaultFunctionNamespace)
	}
	if cfg.DefaultElementNamespace != "" {
		sc = sc.WithDefaultElementNamespace(cfg.DefaultElementNamespace)
	}
	if cfg.DefaultCollation != "" {
		sc = sc.WithDefaultCollation(cfg.DefaultCollation)
	}
	// Sorted so that an invalid binding is reported deterministically.
	for _, prefix := range slices.Sorted(maps.Keys(cfg.Namespaces)) {
		sc = sc.WithNamespace(prefix, cfg.Namespaces[prefix])
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	for _, v := range cfg.Variables {
		name, err := variableName(v, sc)
		if err != nil {
			return nil, err
		}
		sc = sc.WithVariable(name)
	}
	return sc, nil
}

func variableName(s string, sc *compiler.StaticContext) (xdm.QName, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if rest, ok := strings.CutPrefix(s, "{"); ok {
		ns, local, found := strings.Cut(rest, "}")
		if !found || !xdm.IsNCName(local) {
			return xdm.QName{}, fmt.Errorf("invalid variable name %q", s)
		}
		return xdm.NewQName(ns, local), nil
	}
	return xdm.ParseQName(s, func(prefix string) (string, bool) {
		if prefix == "" {
			return "", true
		}
		return sc.ResolvePrefix(prefix)
	})
}
