package registry

import (
	"fmt"
	"strings"

	"github.com/texdist/bundle-tools/bundle"
)

// SyncResult summarizes a sync run for reporting.
type SyncResult struct {
	// Previous is the number of entries in the pre-existing package map.
	Previous int
	// Discovered is the number of packages found by scanning bundle metadata.
	Discovered int
	// Final is the number of entries in the merged package map.
	Final int
	// NewPackages is the net number of packages added by this run.
	NewPackages int
	// ManifestFiles is the total number of files in the manifest.
	ManifestFiles int
	// Issues lists files whose declared path violates the prefix convention.
	Issues []PathIssue
}

// Sync scans every metadata sidecar in dir and rebuilds the package map and
// file manifest. Sidecars are processed in sorted bundle-name order, which
// makes the first-claim-wins rules deterministic: the first bundle to
// declare a full path owns its manifest entry, and the first bundle to ship
// a style or class file owns the derived package among newly discovered
// ones. The merged map prefers entries of the existing map over
// auto-discovery, so curated entries survive re-runs.
//
// requiredPrefix is the install-tree root checked for style, class, and
// definition files; empty means bundle.RequiredPrefix.
//
// A sidecar that fails to parse is reported through l and skipped; the
// remaining bundles still contribute to the outputs.
func Sync(dir, requiredPrefix string, existing PackageMap, l Listener) (PackageMap, FileManifest, SyncResult, error) {
	if l == nil {
		l = func(fmt.Stringer) {}
	}
	if requiredPrefix == "" {
		requiredPrefix = bundle.RequiredPrefix
	}

	bundles, err := bundle.DiscoverMetadata(dir)
	if err != nil {
		return nil, nil, SyncResult{}, err
	}

	discovered := make(PackageMap)
	manifest := make(FileManifest)
	var issues []PathIssue

	for _, b := range bundles {
		meta, err := b.ReadMetadata()
		if err != nil {
			l(EventMetadataError{Bundle: b.Name, Err: err.Error()})
			continue
		}

		for _, e := range meta.Files {
			fullPath := e.FullPath()

			manifest.Claim(fullPath, ManifestEntry{Bundle: b.Name, Start: e.Start, End: e.End})

			if e.Path != "" && bundle.IsInstallChecked(e.Name) && !strings.HasPrefix(e.Path, requiredPrefix) {
				issues = append(issues, PathIssue{
					Bundle:       b.Name,
					FullPath:     fullPath,
					DeclaredPath: e.Path,
				})
			}

			if bundle.IsPackageFile(e.Name) {
				pkg := bundle.PackageName(e.Name)
				if _, ok := discovered[pkg]; !ok {
					discovered[pkg] = b.Name
				}
			}
		}
	}

	merged := Merge(existing, discovered)

	res := SyncResult{
		Previous:      len(existing),
		Discovered:    len(discovered),
		Final:         len(merged),
		NewPackages:   len(merged) - len(existing),
		ManifestFiles: len(manifest),
		Issues:        issues,
	}
	return merged, manifest, res, nil
}
