package artifact

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"credit-dashboard/internal/model"
)

func writeGob(t *testing.T, path string, v any) {
	t.Helper()
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatalf("gob encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoad_ExactPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feats")
	writeGob(t, path, []string{"A", "B"})

	var got []string
	if err := Load(path, &got); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(got) != 2 || got[0] != "A" {
		t.Errorf("got %v", got)
	}
}

func TestLoad_ProbesExtensions(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "pipeline")
	writeJSON(t, base+".json", map[string]string{"kind": "logistic"})

	var got map[string]string
	if err := Load(base, &got); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got["kind"] != "logistic" {
		t.Errorf("got %v", got)
	}
}

func TestLoad_ExtensionOrder(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "artifact")
	writeGob(t, base+".gob", "from-gob")
	writeJSON(t, base+".json", "from-json")

	var got string
	if err := Load(base, &got); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got != "from-gob" {
		t.Errorf("got %q, want the gob candidate probed first", got)
	}
}

func TestLoad_NotFound(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "missing"), &struct{}{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoad_AllBackendsFailAggregatesErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.gob")
	if err := os.WriteFile(path, []byte("\x00\x01 not a valid artifact \xff"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out model.PipelineSpec
	err := Load(path, &out)
	if err == nil {
		t.Fatal("expected decode failure")
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %T", err)
	}
	if len(loadErr.Attempts) != 3 {
		t.Errorf("expected all 3 backend errors to be reported, got %v", loadErr.Attempts)
	}
}

func TestLoad_JSONFallbackAfterGobFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec")
	writeJSON(t, path, model.ClassifierSpec{Kind: "logistic", Weights: []float64{1, 2}, Bias: 0.5})

	var got model.ClassifierSpec
	if err := Load(path, &got); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got.Kind != "logistic" || len(got.Weights) != 2 || got.Bias != 0.5 {
		t.Errorf("got %+v", got)
	}
}

func TestSave_AppendsExtension(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "explainer")

	if err := Save(base, model.ExplainerSpec{Weights: []float64{1}}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if _, err := os.Stat(base + ".gob"); err != nil {
		t.Fatalf("expected %s.gob to exist: %v", base, err)
	}

	var got model.ExplainerSpec
	if err := Load(base, &got); err != nil {
		t.Fatalf("round-trip Load returned error: %v", err)
	}
	if len(got.Weights) != 1 || got.Weights[0] != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestSave_EncodesPerExtension(t *testing.T) {
	dir := t.TempDir()
	spec := model.ClassifierSpec{Kind: "logistic", Weights: []float64{1, 2}, Bias: 0.5}

	jsonPath := filepath.Join(dir, "spec.json")
	if err := Save(jsonPath, spec); err != nil {
		t.Fatalf("Save json returned error: %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var fromJSON model.ClassifierSpec
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatalf("a .json artifact must hold JSON bytes: %v", err)
	}
	if fromJSON.Kind != "logistic" || fromJSON.Bias != 0.5 {
		t.Errorf("got %+v", fromJSON)
	}

	yamlPath := filepath.Join(dir, "spec.yaml")
	if err := Save(yamlPath, spec); err != nil {
		t.Fatalf("Save yaml returned error: %v", err)
	}
	var fromYAML model.ClassifierSpec
	if err := Load(yamlPath, &fromYAML); err != nil {
		t.Fatalf("round-trip Load returned error: %v", err)
	}
	if fromYAML.Kind != "logistic" || len(fromYAML.Weights) != 2 {
		t.Errorf("got %+v", fromYAML)
	}
}
