package applyrun

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/lighthouseQC/system-update-engine/internal/blockdiff"
)

func writePlanFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	return path
}

func TestLoadPlanYAML(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte{0xAA, 0xBB})
	path := writePlanFile(t, "plan.yaml", `
partition: system_a
totalBlocks: 8
sourceImage: ./old.img
operations:
  - type: sourceCopy
    src: { start: 0, count: 2 }
    dst: { start: 4, count: 2 }
  - type: replace
    dst: { start: 7, count: 1 }
    data: `+payload+`
  - type: zero
    dst: { start: 1, count: 3 }
`)

	p, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}
	if p.Partition != "system_a" || p.TotalBlocks != 8 || p.SourceImage != "./old.img" {
		t.Fatalf("plan = %+v", p)
	}

	ops, err := p.Ops()
	if err != nil {
		t.Fatalf("Ops: %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("got %d ops, want 3", len(ops))
	}
	if ops[0].Kind != blockdiff.OpSourceCopy || ops[0].Src.Start != 0 || ops[0].Dst.Start != 4 {
		t.Fatalf("op 0 = %+v", ops[0])
	}
	if ops[1].Kind != blockdiff.OpReplace || string(ops[1].Payload) != "\xaa\xbb" {
		t.Fatalf("op 1 = %+v", ops[1])
	}
	if ops[2].Kind != blockdiff.OpZero || ops[2].Dst.Count != 3 {
		t.Fatalf("op 2 = %+v", ops[2])
	}

	copies := SourceCopies(ops)
	if len(copies) != 1 || copies[0].Kind != blockdiff.OpSourceCopy {
		t.Fatalf("SourceCopies = %+v", copies)
	}
}

func TestLoadPlanJSON(t *testing.T) {
	path := writePlanFile(t, "plan.json", `{
  "partition": "vendor_b",
  "totalBlocks": 4,
  "sourceImage": "old.img",
  "operations": [
    {"type": "replace", "src": {"start": 0, "count": 1}, "dst": {"start": 3, "count": 1}}
  ]
}`)

	p, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}
	ops, err := p.Ops()
	if err != nil {
		t.Fatalf("Ops: %v", err)
	}
	if ops[0].Kind != blockdiff.OpReplace || ops[0].Src.Start != 0 || len(ops[0].Payload) != 0 {
		t.Fatalf("op = %+v", ops[0])
	}
}

func TestLoadPlanRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"missing partition": `{"totalBlocks": 4, "operations": []}`,
		"zero blocks":       `{"partition": "a", "totalBlocks": 0}`,
		"unknown op":        `{"partition": "a", "totalBlocks": 4, "operations": [{"type": "merge", "dst": {"start": 0, "count": 1}}]}`,
		"copy without src":  `{"partition": "a", "totalBlocks": 4, "operations": [{"type": "sourceCopy", "dst": {"start": 0, "count": 1}}]}`,
		"empty replace":     `{"partition": "a", "totalBlocks": 4, "operations": [{"type": "replace", "dst": {"start": 0, "count": 1}}]}`,
	}
	for name, content := range cases {
		path := writePlanFile(t, "plan.json", content)
		if _, err := LoadPlan(path); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
}

func TestLoadPlanRejectsUnknownExtension(t *testing.T) {
	path := writePlanFile(t, "plan.txt", "partition: a")
	if _, err := LoadPlan(path); err == nil {
		t.Fatal("unknown extension accepted")
	}
}

func TestPlanRejectsBadPayload(t *testing.T) {
	path := writePlanFile(t, "plan.json",
		`{"partition": "a", "totalBlocks": 4, "operations": [{"type": "replace", "dst": {"start": 0, "count": 1}, "data": "!!!"}]}`)
	p, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}
	if _, err := p.Ops(); err == nil {
		t.Fatal("bad base64 accepted")
	}
}
