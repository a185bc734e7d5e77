package registry

import (
	"encoding/json"
	"os"
)

// ManifestEntry locates a file's content: the owning bundle and the byte
// range of the file within that bundle's decompressed payload.
type ManifestEntry struct {
	Bundle string `json:"bundle"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// FileManifest maps every file's full logical path (path + "/" + name) to
// its location. A path is claimed by the first bundle that declares it.
type FileManifest map[string]ManifestEntry

// Claim registers an entry for fullPath unless an earlier-processed bundle
// already claimed it. It reports whether the entry was recorded.
func (m FileManifest) Claim(fullPath string, e ManifestEntry) bool {
	if _, exists := m[fullPath]; exists {
		return false
	}
	m[fullPath] = e
	return true
}

// Save writes the manifest as compact JSON. The manifest indexes every
// file of every bundle, so the compact encoding matters for file size.
func (m FileManifest) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// PathIssue records a style, class, or definition file whose declared
// install path does not start with the required prefix. Issues are
// diagnostics only; they never block output writing.
type PathIssue struct {
	Bundle       string
	FullPath     string
	DeclaredPath string
}
