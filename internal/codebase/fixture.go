package codebase

import (
	"fmt"

	"github.com/mago-analyzer/mago/internal/types"
	"gopkg.in/yaml.v3"
)

// fixtureClass and fixtureMetadata are the YAML shape accepted by
// LoadMetadataFixture: a minimal hand-editable format for seeding a
// Metadata in tests and in the cmd/magocore demo driver, the same role
// funxy.yaml plays for the teacher's ext package config (internal/ext/
// config.go's yaml.Unmarshal(data, &cfg) shape).
type fixtureClass struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind,omitempty"` // "class" (default), "interface", "trait", "enum"
	Extends []string `yaml:"extends,omitempty"`
	Final   bool     `yaml:"final,omitempty"`
}

type fixtureFunction struct {
	ID     string            `yaml:"id"`
	Params map[string]string `yaml:"params,omitempty"`
	Return string            `yaml:"return,omitempty"`
}

type fixtureMetadata struct {
	Classes   []fixtureClass    `yaml:"classes,omitempty"`
	Functions []fixtureFunction `yaml:"functions,omitempty"`
}

// LoadMetadataFixture parses a YAML document into a fresh Metadata,
// resolving declared `extends` edges into DirectParentClasses /
// AllParentClasses eagerly (no separate populator pass needed for test
// fixtures). Parameter/return types are restricted to the handful of
// scalar spellings a fixture needs ("int", "string", "bool", "float",
// "mixed", or a bare class name).
func LoadMetadataFixture(data []byte) (*Metadata, error) {
	var raw fixtureMetadata
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("codebase: parsing metadata fixture: %w", err)
	}

	m := NewMetadata()
	for _, fc := range raw.Classes {
		kind := KindClass
		switch fc.Kind {
		case "interface":
			kind = KindInterface
		case "trait":
			kind = KindTrait
		case "enum":
			kind = KindEnum
		}
		c := NewClassLikeMetadata(fc.Name, kind)
		c.Flags.Final = fc.Final
		c.DirectParentClasses = fc.Extends
		c.AllParentClasses = fc.Extends
		m.AddClassLike(c)
	}
	for lname, c := range m.ClassLikes {
		for _, parent := range c.DirectParentClasses {
			descendants := m.AllClassLikeDescendants[lower(parent)]
			if descendants == nil {
				descendants = map[string]bool{}
				m.AllClassLikeDescendants[lower(parent)] = descendants
			}
			descendants[lname] = true
		}
	}

	for _, ff := range raw.Functions {
		f := &FunctionLikeMetadata{ID: ff.ID, ReturnType: fixtureType(ff.Return)}
		for name, typeName := range ff.Params {
			f.Parameters = append(f.Parameters, Parameter{Name: name, Type: fixtureType(typeName)})
		}
		m.AddFunctionLike(f)
	}
	return m, nil
}

func fixtureType(name string) *types.TUnion {
	switch name {
	case "", "mixed":
		return types.Mixed()
	case "int":
		return types.Int()
	case "string":
		return types.Str()
	case "bool":
		return types.Bool()
	case "float":
		return types.Float()
	case "void":
		return types.Void()
	case "null":
		return types.Null()
	default:
		return types.NamedObject(name)
	}
}
