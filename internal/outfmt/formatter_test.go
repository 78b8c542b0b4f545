package outfmt

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestFormatter_Output_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(WithMode(context.Background(), JSON), &buf, &buf)

	wrote, err := f.Output(map[string]string{"name": "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !wrote || !strings.Contains(buf.String(), `"name"`) {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}

func TestFormatter_Output_TextFallsThrough(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(context.Background(), &buf, &buf)
	wrote, err := f.Output(map[string]string{"name": "test"})
	if err != nil || wrote || buf.Len() != 0 {
		t.Errorf("text mode should not write JSON: wrote=%v err=%v out=%q", wrote, err, buf.String())
	}
}

func TestFormatter_Table(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(context.Background(), &buf, &buf)

	f.StartTable("ID", "STATUS")
	f.Row("01234567890A=", "online")
	if err := f.EndTable(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[1], "online") {
		t.Errorf("unexpected table: %q", buf.String())
	}
}

func TestFormatter_KeyValue(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(context.Background(), &buf, &buf)
	if err := f.KeyValue("Name", "bot", "Icon", "", "URI", "mybot"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Name:") || strings.Contains(out, "Icon") || !strings.Contains(out, "mybot") {
		t.Errorf("unexpected key/value output: %q", out)
	}
}

func TestFormatter_Empty(t *testing.T) {
	var out, errOut bytes.Buffer
	f := NewFormatter(context.Background(), &out, &errOut)
	f.Empty("no users online")
	if out.Len() != 0 || !strings.Contains(errOut.String(), "no users online") {
		t.Errorf("Empty should write to stderr only")
	}
}
