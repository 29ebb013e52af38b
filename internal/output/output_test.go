package output

import (
	"bytes"
	"strings"
	"testing"
)

type record struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func TestFprintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Fprint(&buf, FormatJSON, record{Name: "item5", Count: 2}); err != nil {
		t.Fatalf("Fprint: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, `"name": "item5"`) {
		t.Errorf("missing name field: %s", got)
	}
	if !strings.Contains(got, `"count": 2`) {
		t.Errorf("missing count field: %s", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Error("expected trailing newline")
	}
}

func TestFprintYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Fprint(&buf, FormatYAML, record{Name: "item5", Count: 2}); err != nil {
		t.Fatalf("Fprint: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "name: item5") {
		t.Errorf("missing name field: %s", got)
	}
	if !strings.Contains(got, "count: 2") {
		t.Errorf("missing count field: %s", got)
	}
}

func TestFprintUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Fprint(&buf, Format("xml"), record{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestSetFormat(t *testing.T) {
	t.Cleanup(func() { SetFormat("yaml") })

	SetFormat("json")
	if ActiveFormat() != FormatJSON {
		t.Errorf("ActiveFormat() = %s, want json", ActiveFormat())
	}

	SetFormat("bogus")
	if ActiveFormat() != FormatYAML {
		t.Errorf("ActiveFormat() = %s, want yaml fallback", ActiveFormat())
	}
}
