package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// PackageMap maps a package name to the name of the bundle that owns it.
// Each package has exactly one owner.
type PackageMap map[string]string

// LoadPackageMap reads a package map from path. The file is hand-curated,
// so // comments and trailing commas are tolerated and stripped before
// decoding. A missing file surfaces as an os.IsNotExist error; malformed
// JSON is a parse error for the caller to treat as fatal.
func LoadPackageMap(path string) (PackageMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := make(PackageMap)
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// Merge combines newly discovered ownerships with an existing map. For the
// union of package names in either map, the existing entry wins when
// present; discovery only fills gaps. Neither input is modified, so
// re-running a sync never overwrites a curated entry.
func Merge(existing, discovered PackageMap) PackageMap {
	merged := make(PackageMap, len(existing)+len(discovered))
	for pkg, owner := range discovered {
		merged[pkg] = owner
	}
	for pkg, owner := range existing {
		merged[pkg] = owner
	}
	return merged
}

// Save writes the map as pretty-printed JSON with sorted keys.
func (m PackageMap) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
