package fallback

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed operators.yaml
var operatorsYAML []byte

// operatorSet is the realistic regional operator vocabulary the synthetic
// generator draws from.
type operatorSet struct {
	Flight struct {
		Operators []string `yaml:"operators"`
		Codes     []string `yaml:"codes"`
	} `yaml:"flight"`
	Train struct {
		Operators []string `yaml:"operators"`
	} `yaml:"train"`
	Bus struct {
		Operators []string `yaml:"operators"`
		Classes   []string `yaml:"classes"`
	} `yaml:"bus"`
	Hotel struct {
		Operators []string `yaml:"operators"`
	} `yaml:"hotel"`
}

var operators = mustLoadOperators()

func mustLoadOperators() operatorSet {
	var set operatorSet
	if err := yaml.Unmarshal(operatorsYAML, &set); err != nil {
		panic(fmt.Sprintf("fallback: embedded operator set is invalid: %v", err))
	}
	return set
}
