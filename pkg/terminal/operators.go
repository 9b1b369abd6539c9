package terminal

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Operator describes one mobile network: the IMSI prefixes (MCC+MNC) its
// SIMs carry and the subscriber number prefixes it serves.
type Operator struct {
	Name           string   `yaml:"name"`
	IMSIPrefixes   []string `yaml:"imsiPrefixes"`
	NumberPrefixes []string `yaml:"numberPrefixes"`
}

// OperatorTable resolves IMSIs and subscriber numbers to operator names.
type OperatorTable struct {
	Operators []Operator `yaml:"operators"`
}

// LoadOperators reads an operator table from a YAML file.
func LoadOperators(path string) (*OperatorTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read operator table: %w", err)
	}
	return ParseOperators(data)
}

// ParseOperators parses a YAML operator table.
func ParseOperators(data []byte) (*OperatorTable, error) {
	var t OperatorTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse operator table: %w", err)
	}
	return &t, nil
}

// ByIMSI returns the operator owning the given IMSI, matched by longest
// prefix. Empty when no prefix matches or the table is nil.
func (t *OperatorTable) ByIMSI(imsi string) string {
	return t.match(imsi, func(op Operator) []string { return op.IMSIPrefixes })
}

// ByNumber returns the operator serving the given subscriber number, matched
// by longest prefix.
func (t *OperatorTable) ByNumber(number string) string {
	return t.match(number, func(op Operator) []string { return op.NumberPrefixes })
}

func (t *OperatorTable) match(value string, prefixes func(Operator) []string) string {
	if t == nil {
		return ""
	}
	best := ""
	bestLen := 0
	for _, op := range t.Operators {
		for _, p := range prefixes(op) {
			if p != "" && strings.HasPrefix(value, p) && len(p) > bestLen {
				best = op.Name
				bestLen = len(p)
			}
		}
	}
	return best
}
