package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"KYCCapture/pkg/facezone"

	"gopkg.in/yaml.v3"
)

// scenario is a recorded capture session:
//
//	tolerance: 2
//	samples:
//	  - position: -0.62
//	    compliant: true
type scenario struct {
	Name      string            `yaml:"name,omitempty"`
	Tolerance int               `yaml:"tolerance"`
	Samples   []facezone.Sample `yaml:"samples"`
}

func loadScenario(path string) (*scenario, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	return parseScenario(data)
}

func parseScenario(data []byte) (*scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if sc.Tolerance == 0 {
		sc.Tolerance = int(facezone.DefaultTolerance)
	}
	if !facezone.Tolerance(sc.Tolerance).Valid() {
		return nil, fmt.Errorf("tolerance %d out of range %d..%d", sc.Tolerance, facezone.MinTolerance, facezone.MaxTolerance)
	}
	if len(sc.Samples) == 0 {
		return nil, fmt.Errorf("scenario has no samples")
	}

	return &sc, nil
}
