package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/texdist/bundle-tools/bundle"
)

// DepsComment is the human-readable header written into the dependency
// artifact, describing its content for downstream consumers.
const DepsComment = "Package dependencies extracted from bundle .sty files. Maps package name to list of required packages."

// DepsDoc is the persisted form of the dependency map.
type DepsDoc struct {
	Comment  string              `json:"$comment"`
	Packages map[string][]string `json:"packages"`
}

// Save writes the document as pretty-printed JSON with sorted keys.
func (d DepsDoc) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ExtractDeps scans every bundle in dir and aggregates a package ->
// dependency-list map across all of them. Bundles are processed in sorted
// name order; when two bundles ship a style file for the same package, the
// later bundle's non-empty result overwrites the earlier one.
//
// A bundle without a metadata sidecar contributes nothing. A bundle whose
// metadata or payload cannot be read is reported through l and skipped;
// neither condition aborts the run.
func ExtractDeps(dir string, l Listener) (map[string][]string, error) {
	if l == nil {
		l = func(fmt.Stringer) {}
	}

	bundles, err := bundle.Discover(dir)
	if err != nil {
		return nil, err
	}

	all := make(map[string][]string)
	for _, b := range bundles {
		found, err := extractBundleDeps(b)
		if err != nil {
			l(EventMetadataError{Bundle: b.Name, Err: err.Error()})
			continue
		}
		for pkg, deps := range found {
			all[pkg] = deps
		}
		if len(found) > 0 {
			l(EventBundleScanned{Bundle: b.Name, Packages: len(found)})
		}
	}
	return all, nil
}

// extractBundleDeps scans one bundle and returns its package ->
// dependency-list map. Only style file entries with a valid byte range are
// scanned, and only non-empty dependency sets are recorded.
func extractBundleDeps(b bundle.Bundle) (map[string][]string, error) {
	meta, err := b.ReadMetadata()
	if err != nil {
		if os.IsNotExist(err) {
			// No sidecar: the bundle contributes no dependencies.
			return nil, nil
		}
		return nil, err
	}
	if len(meta.Files) == 0 {
		return nil, nil
	}

	payload, err := b.ReadPayload()
	if err != nil {
		return nil, err
	}

	deps := make(map[string][]string)
	for _, e := range meta.Files {
		if !bundle.IsStyle(e.Name) {
			continue
		}
		content, err := bundle.Slice(payload, e)
		if err != nil {
			// Empty or out-of-range entries are skipped, not fatal.
			continue
		}
		pkg := bundle.PackageName(e.Name)
		if found := bundle.ScanDependencies(content, pkg); len(found) > 0 {
			deps[pkg] = found
		}
	}
	return deps, nil
}
