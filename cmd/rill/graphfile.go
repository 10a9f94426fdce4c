package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/rill/pkg/domain"
)

// loadGraphFile reads a graph definition from a YAML file of the shape:
//
//	entry_node_id: extract
//	nodes:
//	  - id: extract
//	    tool: extract_functions
//	  - id: done
//	    kind: terminal
//	edges:
//	  - from: extract
//	    to: done
func loadGraphFile(path string) (domain.GraphDefinition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.GraphDefinition{}, err
	}

	var def domain.GraphDefinition
	if err := yaml.Unmarshal(b, &def); err != nil {
		return domain.GraphDefinition{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := def.Validate(); err != nil {
		return domain.GraphDefinition{}, err
	}
	return def, nil
}
