package schema

import (
	"fmt"
	"io"
	"os"

	"github.com/goliatone/go-dataflow/core"
	"gopkg.in/yaml.v3"
)

type yamlDocument struct {
	Schemas []yamlSchema `yaml:"schemas"`
}

type yamlSchema struct {
	Name       string          `yaml:"name"`
	Required   []yamlAttribute `yaml:"required"`
	Attributes []yamlAttribute `yaml:"attributes"`
}

type yamlAttribute struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// ParseYAML decodes schema definitions of the form
//
//	schemas:
//	  - name: AmazonS3
//	    required:
//	      - {name: region, type: string}
//	    attributes:
//	      - {name: partSize, type: int}
func ParseYAML(r io.Reader) ([]core.Schema, error) {
	var doc yamlDocument
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("schema: decode yaml: %w", err)
	}
	out := make([]core.Schema, 0, len(doc.Schemas))
	for _, item := range doc.Schemas {
		schema := core.Schema{
			Name:               item.Name,
			RequiredAttributes: toDescriptors(item.Required),
			Attributes:         toDescriptors(item.Attributes),
		}
		if err := schema.Validate(); err != nil {
			return nil, err
		}
		out = append(out, schema)
	}
	return out, nil
}

func LoadYAMLFile(path string) (*MemoryRegistry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schema: open %s: %w", path, err)
	}
	defer file.Close()
	return LoadYAML(file)
}

func LoadYAML(r io.Reader) (*MemoryRegistry, error) {
	schemas, err := ParseYAML(r)
	if err != nil {
		return nil, err
	}
	return NewMemoryRegistry(schemas...)
}

func toDescriptors(items []yamlAttribute) []core.AttributeDescriptor {
	if len(items) == 0 {
		return nil
	}
	out := make([]core.AttributeDescriptor, 0, len(items))
	for _, item := range items {
		out = append(out, core.AttributeDescriptor{Name: item.Name, Type: item.Type})
	}
	return out
}
