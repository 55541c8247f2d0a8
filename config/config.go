// Package config decodes the HCL run description of the fracture driver.
//
//	input               = "mesh.neu"
//	output              = "split.vtk"
//	policy              = "field"
//	field               = "attribute"
//	generate_global_ids = true
//	combined_values     = [1, 2, 3]
//
//	fracture "fault" {
//	  values = [1, 2]
//	  output = "fault.vtk"
//	}
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/notargets/fracture/ctxlog"
	"github.com/notargets/fracture/fractures"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// DefaultField is the cell field used when none is configured
const DefaultField = "attribute"

// Config is a decoded run description
type Config struct {
	Input             string
	Output            string
	Policy            fractures.Policy
	Field             string
	GenerateGlobalIDs bool
	CombinedValues    []int
	Fractures         []Fracture
}

// Fracture is one fracture block
type Fracture struct {
	Label  string
	Values []int
	Output string
}

type fileRoot struct {
	Input             string           `hcl:"input"`
	Output            string           `hcl:"output"`
	Policy            string           `hcl:"policy"`
	Field             *string          `hcl:"field,optional"`
	GenerateGlobalIDs *bool            `hcl:"generate_global_ids,optional"`
	CombinedValues    hcl.Expression   `hcl:"combined_values,optional"`
	Fractures         []*fractureBlock `hcl:"fracture,block"`
}

type fractureBlock struct {
	Label  string         `hcl:"label,label"`
	Values hcl.Expression `hcl:"values"`
	Output *string        `hcl:"output,optional"`
}

// Load reads and decodes the file at path. Relative mesh paths are resolved
// against the directory of the file.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config %s: %w", path, err)
	}
	cfg, err := Parse(src, path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	cfg.Input = resolve(dir, cfg.Input)
	cfg.Output = resolve(dir, cfg.Output)
	for i := range cfg.Fractures {
		cfg.Fractures[i].Output = resolve(dir, cfg.Fractures[i].Output)
	}
	logger.Debug("Loaded configuration.", "path", path, "fractures", len(cfg.Fractures))
	return cfg, nil
}

// Parse decodes HCL source; filename is only used in diagnostics
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	policy, err := fractures.ParsePolicy(root.Policy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	cfg := &Config{
		Input:  root.Input,
		Output: root.Output,
		Policy: policy,
		Field:  DefaultField,
	}
	if root.Field != nil {
		cfg.Field = *root.Field
	}
	if root.GenerateGlobalIDs != nil {
		cfg.GenerateGlobalIDs = *root.GenerateGlobalIDs
	}
	if cfg.CombinedValues, err = decodeInts(root.CombinedValues); err != nil {
		return nil, fmt.Errorf("%s: combined_values: %w", filename, err)
	}

	if len(root.Fractures) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, fractures.ErrNoFractures)
	}
	seen := make(map[string]bool)
	for _, b := range root.Fractures {
		if seen[b.Label] {
			return nil, fmt.Errorf("%s: duplicate fracture %q", filename, b.Label)
		}
		seen[b.Label] = true

		values, err := decodeInts(b.Values)
		if err != nil {
			return nil, fmt.Errorf("%s: fracture %q: %w", filename, b.Label, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("%s: fracture %q: %w", filename, b.Label, fractures.ErrNoFractures)
		}
		f := Fracture{Label: b.Label, Values: values, Output: b.Label + ".vtk"}
		if b.Output != nil {
			f.Output = *b.Output
		}
		cfg.Fractures = append(cfg.Fractures, f)
	}
	return cfg, nil
}

// SplitOptions returns the options of fractures.Split, one value set per
// fracture block in file order.
func (c *Config) SplitOptions() fractures.Options {
	opts := fractures.Options{
		Policy:              c.Policy,
		Field:               c.Field,
		FieldValuesCombined: c.CombinedValues,
	}
	for _, f := range c.Fractures {
		opts.FieldValuesPerFracture = append(opts.FieldValuesPerFracture, f.Values)
	}
	return opts
}

// decodeInts evaluates a constant expression into a list of integers. An
// absent optional attribute evaluates to null and yields nil.
func decodeInts(expr hcl.Expression) ([]int, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	listVal, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		return nil, fmt.Errorf("cannot convert %s to list of numbers: %w", val.Type().FriendlyName(), err)
	}
	var out []int
	if err := gocty.FromCtyValue(listVal, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
