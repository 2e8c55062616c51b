package applyrun

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lighthouseQC/system-update-engine/internal/blockdiff"
)

// Extent is a contiguous block range in plan documents.
type Extent struct {
	Start uint64 `json:"start" yaml:"start"`
	Count uint64 `json:"count" yaml:"count"`
}

// PlanOp is one operation in a plan document. Type is one of "sourceCopy",
// "replace", "zero", or "discard". Replace carries either inline Data
// (base64) or a Src extent read from the source image.
type PlanOp struct {
	Type string  `json:"type" yaml:"type"`
	Src  *Extent `json:"src,omitempty" yaml:"src,omitempty"`
	Dst  Extent  `json:"dst" yaml:"dst"`
	Data string  `json:"data,omitempty" yaml:"data,omitempty"`
}

// Plan is the on-disk apply plan for one partition.
type Plan struct {
	Partition   string   `json:"partition" yaml:"partition"`
	TotalBlocks uint64   `json:"totalBlocks" yaml:"totalBlocks"`
	SourceImage string   `json:"sourceImage" yaml:"sourceImage"`
	Operations  []PlanOp `json:"operations" yaml:"operations"`
}

// LoadPlan reads a plan from a JSON or YAML file, chosen by extension.
func LoadPlan(path string) (Plan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, err
	}
	var p Plan
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(b, &p); err != nil {
			return Plan{}, fmt.Errorf("plan %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &p); err != nil {
			return Plan{}, fmt.Errorf("plan %s: %w", path, err)
		}
	default:
		return Plan{}, fmt.Errorf("plan %s: unknown extension (want .json, .yaml, or .yml)", path)
	}
	if err := p.Validate(); err != nil {
		return Plan{}, fmt.Errorf("plan %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the document's structure; block-level bounds are enforced
// later by the writer.
func (p Plan) Validate() error {
	if p.Partition == "" {
		return fmt.Errorf("missing partition name")
	}
	if p.TotalBlocks == 0 {
		return fmt.Errorf("totalBlocks must be positive")
	}
	for i, op := range p.Operations {
		switch op.Type {
		case "sourceCopy":
			if op.Src == nil {
				return fmt.Errorf("operation %d: sourceCopy without src", i)
			}
		case "replace":
			if op.Data == "" && op.Src == nil {
				return fmt.Errorf("operation %d: replace needs data or src", i)
			}
			if op.Data != "" && op.Src != nil {
				return fmt.Errorf("operation %d: replace with both data and src", i)
			}
		case "zero", "discard":
		default:
			return fmt.Errorf("operation %d: unknown type %q", i, op.Type)
		}
	}
	return nil
}

// Ops converts the document into diff operations, decoding inline payloads.
func (p Plan) Ops() ([]blockdiff.Op, error) {
	ops := make([]blockdiff.Op, 0, len(p.Operations))
	for i, po := range p.Operations {
		op := blockdiff.Op{Dst: blockdiff.Range{Start: po.Dst.Start, Count: po.Dst.Count}}
		if po.Src != nil {
			op.Src = blockdiff.Range{Start: po.Src.Start, Count: po.Src.Count}
		}
		switch po.Type {
		case "sourceCopy":
			op.Kind = blockdiff.OpSourceCopy
		case "replace":
			op.Kind = blockdiff.OpReplace
			if po.Data != "" {
				data, err := base64.StdEncoding.DecodeString(po.Data)
				if err != nil {
					return nil, fmt.Errorf("operation %d: bad payload: %w", i, err)
				}
				op.Payload = data
			}
		case "zero":
			op.Kind = blockdiff.OpZero
		case "discard":
			op.Kind = blockdiff.OpDiscard
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// SourceCopies returns only the SourceCopy operations, in plan order. These
// are committed wholesale during a fresh writer init.
func SourceCopies(ops []blockdiff.Op) []blockdiff.Op {
	var out []blockdiff.Op
	for _, op := range ops {
		if op.Kind == blockdiff.OpSourceCopy {
			out = append(out, op)
		}
	}
	return out
}
