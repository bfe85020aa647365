// Package seed loads pipeline definitions from a YAML file at startup.
package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/waabox/testdeck/internal/domain"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout:
//
//	pipelines:
//	  - name: API Tests Production
//	    type: api_collection
//	    created_by: john@testflow.com
//	    config:
//	      api_collection:
//	        collection: production-api.json
type File struct {
	Pipelines []domain.PipelineDefinition `yaml:"pipelines"`
}

// Creator is the part of the registry the loader needs.
type Creator interface {
	Create(def domain.PipelineDefinition) (domain.Pipeline, error)
}

// Parse decodes and validates definitions. Unknown keys are rejected so typos surface early.
func Parse(r io.Reader) ([]domain.PipelineDefinition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}
	for i := range f.Pipelines {
		if err := f.Pipelines[i].Validate(); err != nil {
			return nil, fmt.Errorf("pipeline %d (%q): %w", i, f.Pipelines[i].Name, err)
		}
	}
	return f.Pipelines, nil
}

// LoadFile parses the seed file at path.
func LoadFile(path string) ([]domain.PipelineDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Apply creates every definition and returns the created pipelines.
// It stops at the first error.
func Apply(c Creator, defs []domain.PipelineDefinition) ([]domain.Pipeline, error) {
	out := make([]domain.Pipeline, 0, len(defs))
	for _, def := range defs {
		p, err := c.Create(def)
		if err != nil {
			return out, fmt.Errorf("creating %q: %w", def.Name, err)
		}
		out = append(out, p)
	}
	return out, nil
}
