// Package output prints command results on stdout.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/storyprotocol/sp-cli/configs"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml and yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format '%s'", s)
	}
}

type Printer struct {
	w      io.Writer
	format Format
}

func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// Print writes v using its JSON field names in either format.
func (p *Printer) Print(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal output: %w", err)
	}

	if p.format == FormatYAML {
		if data, err = toYAML(data); err != nil {
			return err
		}
	} else {
		data = append(data, '\n')
	}

	if _, err := p.w.Write(data); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}

	return nil
}

// toYAML re-encodes a JSON document as block style YAML without going through
// Go values, so large integers keep every digit.
func toYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("could not convert output to YAML: %w", err)
	}
	resetStyle(&node)

	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("could not marshal YAML output: %w", err)
	}
	return out, nil
}

func resetStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		resetStyle(child)
	}
}

// Stdout returns a printer on the standard output of cmd in the configured
// format.
func Stdout(cmd *cobra.Command) (*Printer, error) {
	format, err := ParseFormat(configs.Values.Output)
	if err != nil {
		return nil, err
	}
	return NewPrinter(cmd.OutOrStdout(), format), nil
}
