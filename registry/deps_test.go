package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/texdist/bundle-tools/bundle"
)

// payloadMember is a file to place in a mock bundle payload.
type payloadMember struct {
	name    string
	content string
}

// createMockBundle writes a payload blob plus matching sidecar in dir,
// concatenating the member contents to compute offsets.
func createMockBundle(t *testing.T, dir, name string, members []payloadMember) {
	t.Helper()

	var payload []byte
	meta := bundle.Metadata{}
	for _, m := range members {
		start := len(payload)
		payload = append(payload, m.content...)
		meta.Files = append(meta.Files, bundle.FileEntry{
			Name:  m.name,
			Path:  "/texlive/tex/latex/" + name,
			Start: start,
			End:   len(payload),
		})
	}

	metaData, err := json.Marshal(meta)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".meta.json"), metaData, 0644); err != nil {
		t.Fatal(err)
	}

	f, err := os.Create(filepath.Join(dir, name+".data.gz"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gw := gzip.NewWriter(f)
	if _, err := gw.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestExtractDeps(t *testing.T) {
	dir := t.TempDir()
	createMockBundle(t, dir, "tex-latex-misc", []payloadMember{
		{name: "mystyle.sty", content: `\RequirePackage[options]{amsmath,graphicx}` + "\n" + `\usepackage{amsmath}`},
		{name: "plain.sty", content: `\newcommand{\x}{y}`},
		{name: "notes.txt", content: `\usepackage{ignored}`},
	})

	var scanned []string
	all, err := ExtractDeps(dir, func(ev fmt.Stringer) {
		if e, ok := ev.(EventBundleScanned); ok {
			scanned = append(scanned, fmt.Sprintf("%s:%d", e.Bundle, e.Packages))
		}
	})
	if err != nil {
		t.Fatalf("ExtractDeps failed: %v", err)
	}

	want := map[string][]string{
		"mystyle": {"amsmath", "graphicx"},
	}
	if !reflect.DeepEqual(all, want) {
		t.Errorf("expected %v, got %v", want, all)
	}
	if !reflect.DeepEqual(scanned, []string{"tex-latex-misc:1"}) {
		t.Errorf("unexpected progress events: %v", scanned)
	}
}

func TestExtractDepsSelfExcluded(t *testing.T) {
	dir := t.TempDir()
	createMockBundle(t, dir, "tex-ams", []payloadMember{
		{name: "amsmath.sty", content: `\RequirePackage{amsmath}` + "\n" + `\RequirePackage{amstext}`},
	})

	all, err := ExtractDeps(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(all["amsmath"], []string{"amstext"}) {
		t.Errorf("self-reference not excluded: %v", all["amsmath"])
	}
}

func TestExtractDepsMissingSidecar(t *testing.T) {
	dir := t.TempDir()
	// Payload without a sidecar contributes nothing and is not an error.
	f, err := os.Create(filepath.Join(dir, "orphan.data.gz"))
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(f)
	gw.Write([]byte(`\usepackage{never-seen}`))
	gw.Close()
	f.Close()

	all, err := ExtractDeps(dir, nil)
	if err != nil {
		t.Fatalf("ExtractDeps failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty map, got %v", all)
	}
}

func TestExtractDepsSkipsInvalidRanges(t *testing.T) {
	dir := t.TempDir()
	// Hand-built sidecar: one entry with an empty range, one out of bounds.
	meta := `{"files":[
		{"name":"empty.sty","path":"/texlive/tex","start":5,"end":5},
		{"name":"oob.sty","path":"/texlive/tex","start":0,"end":9999}
	]}`
	if err := os.WriteFile(filepath.Join(dir, "tex-odd.meta.json"), []byte(meta), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(dir, "tex-odd.data.gz"))
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(f)
	gw.Write([]byte(`\usepackage{amsmath}`))
	gw.Close()
	f.Close()

	all, err := ExtractDeps(dir, nil)
	if err != nil {
		t.Fatalf("ExtractDeps failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("invalid ranges should be skipped, got %v", all)
	}
}

func TestExtractDepsLaterBundleOverwrites(t *testing.T) {
	dir := t.TempDir()
	// Both bundles ship shared.sty; bundles are scanned in sorted order and
	// the later non-empty result wins.
	createMockBundle(t, dir, "tex-aaa", []payloadMember{
		{name: "shared.sty", content: `\usepackage{early}`},
	})
	createMockBundle(t, dir, "tex-zzz", []payloadMember{
		{name: "shared.sty", content: `\usepackage{late}`},
	})

	all, err := ExtractDeps(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(all["shared"], []string{"late"}) {
		t.Errorf("expected later bundle to win, got %v", all["shared"])
	}
}

func TestExtractDepsCorruptBundleSkipped(t *testing.T) {
	dir := t.TempDir()
	writeMeta(t, dir, "tex-bad", `{"files":[{"name":"x.sty","path":"/texlive","start":0,"end":5}]}`)
	// Sidecar points at a payload that is not gzip.
	if err := os.WriteFile(filepath.Join(dir, "tex-bad.data.gz"), []byte("not gzip"), 0644); err != nil {
		t.Fatal(err)
	}
	createMockBundle(t, dir, "tex-good", []payloadMember{
		{name: "good.sty", content: `\usepackage{amsmath}`},
	})

	var failed []string
	all, err := ExtractDeps(dir, func(ev fmt.Stringer) {
		if e, ok := ev.(EventMetadataError); ok {
			failed = append(failed, e.Bundle)
		}
	})
	if err != nil {
		t.Fatalf("ExtractDeps failed: %v", err)
	}
	if !reflect.DeepEqual(failed, []string{"tex-bad"}) {
		t.Errorf("expected tex-bad reported, got %v", failed)
	}
	if !reflect.DeepEqual(all["good"], []string{"amsmath"}) {
		t.Errorf("good bundle missing after corrupt one: %v", all)
	}
}

func TestDepsDocSaveDeterministic(t *testing.T) {
	dir := t.TempDir()
	createMockBundle(t, dir, "tex-a", []payloadMember{
		{name: "zeta.sty", content: `\usepackage{amsmath}`},
		{name: "alpha.sty", content: `\RequirePackage{graphicx,xcolor}`},
	})

	outPath := filepath.Join(dir, "package-deps.json")

	var runs [2]string
	for run := 0; run < 2; run++ {
		all, err := ExtractDeps(dir, nil)
		if err != nil {
			t.Fatal(err)
		}
		doc := DepsDoc{Comment: DepsComment, Packages: all}
		if err := doc.Save(outPath); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(outPath)
		if err != nil {
			t.Fatal(err)
		}
		runs[run] = string(data)
	}

	if !strings.Contains(runs[0], `"$comment"`) || !strings.Contains(runs[0], `"packages"`) {
		t.Errorf("missing top-level fields:\n%s", runs[0])
	}
	if strings.Index(runs[0], `"alpha"`) > strings.Index(runs[0], `"zeta"`) {
		t.Error("package keys not sorted")
	}
	if runs[0] != runs[1] {
		t.Error("re-extraction changed output bytes")
	}
}
