package bundle

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// FileEntry describes a single member file of a bundle as recorded in the
// metadata sidecar. Start and End are byte offsets into the bundle's
// decompressed payload, forming a half-open range [Start, End).
type FileEntry struct {
	// Name is the file's base name, including its extension (e.g. "geometry.sty").
	Name string `json:"name"`
	// Path is the file's logical directory inside the target filesystem
	// (e.g. "/texlive/tex/latex/geometry").
	Path string `json:"path"`
	// Start is the byte offset of the file content within the decompressed payload.
	Start int `json:"start"`
	// End is the byte offset one past the file content within the decompressed payload.
	End int `json:"end"`
}

// FullPath returns the entry's full logical path: Path + "/" + Name.
func (e FileEntry) FullPath() string {
	return e.Path + "/" + e.Name
}

// Valid reports whether the entry's byte range can hold content.
func (e FileEntry) Valid() bool {
	return e.Start < e.End
}

// Metadata is the parsed content of a bundle's .meta.json sidecar.
// It holds the ordered list of member files.
type Metadata struct {
	Files []FileEntry `json:"files"`
}

// Bundle identifies an archive pair (<Name>.data.gz + <Name>.meta.json)
// inside a directory. The zero value is not usable; use Discover or
// DiscoverMetadata to obtain bundles.
type Bundle struct {
	// Name is the bundle identifier, without any suffix.
	Name string
	// Dir is the directory holding the payload blob and metadata sidecar.
	Dir string
}

// DataPath returns the path to the bundle's compressed payload blob.
func (b Bundle) DataPath() string {
	return filepath.Join(b.Dir, b.Name+string(DataSuffix))
}

// MetaPath returns the path to the bundle's metadata sidecar.
func (b Bundle) MetaPath() string {
	return filepath.Join(b.Dir, b.Name+string(MetaSuffix))
}

// ReadMetadata parses the bundle's .meta.json sidecar.
// A missing sidecar surfaces as an os.IsNotExist error so callers can
// distinguish "bundle has no metadata" from a corrupt file.
func (b Bundle) ReadMetadata() (*Metadata, error) {
	data, err := os.ReadFile(b.MetaPath())
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", b.MetaPath(), err)
	}
	return &meta, nil
}

// ReadPayload decompresses the bundle's payload blob and returns it whole.
// Bundles are decompressed once per run; member files are then sliced out
// of the returned buffer by byte range.
func (b Bundle) ReadPayload() ([]byte, error) {
	f, err := os.Open(b.DataPath())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", b.DataPath(), err)
	}
	defer gzr.Close()

	payload, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", b.DataPath(), err)
	}
	return payload, nil
}

// Slice returns the content of entry e from the decompressed payload.
// It returns an error if the entry's range is empty or does not lie
// within the payload.
func Slice(payload []byte, e FileEntry) ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("empty byte range [%d:%d) for %s", e.Start, e.End, e.Name)
	}
	if e.Start < 0 || e.End > len(payload) {
		return nil, fmt.Errorf("byte range [%d:%d) for %s outside payload of %d bytes", e.Start, e.End, e.Name, len(payload))
	}
	return payload[e.Start:e.End], nil
}

// Discover returns every bundle in dir that has a payload blob, sorted by
// bundle name. The sorted order is load-bearing: it determines which bundle
// wins first-claim tie-breaks downstream.
func Discover(dir string) ([]Bundle, error) {
	return discover(dir, DataSuffix)
}

// DiscoverMetadata returns every bundle in dir that has a metadata sidecar,
// sorted by bundle name. A sidecar is discovered whether or not the
// corresponding payload blob exists.
func DiscoverMetadata(dir string) ([]Bundle, error) {
	return discover(dir, MetaSuffix)
}

func discover(dir string, suffix BundleFile) ([]Bundle, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+string(suffix)))
	if err != nil {
		return nil, err
	}
	bundles := make([]Bundle, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSuffix(filepath.Base(m), string(suffix))
		bundles = append(bundles, Bundle{Name: name, Dir: dir})
	}
	sort.Slice(bundles, func(i, j int) bool { return bundles[i].Name < bundles[j].Name })
	return bundles, nil
}

// PackageName derives a package name from a style or class file name by
// stripping the fixed-length extension ("geometry.sty" -> "geometry").
func PackageName(fileName string) string {
	if len(fileName) <= extLen {
		return ""
	}
	return fileName[:len(fileName)-extLen]
}

// IsStyle reports whether name is a style file.
func IsStyle(name string) bool {
	return strings.HasSuffix(name, string(KindStyle))
}

// IsPackageFile reports whether name defines a loadable package, i.e. is a
// style or class file.
func IsPackageFile(name string) bool {
	return strings.HasSuffix(name, string(KindStyle)) || strings.HasSuffix(name, string(KindClass))
}

// IsInstallChecked reports whether name belongs to the file kinds whose
// declared install path must live under RequiredPrefix.
func IsInstallChecked(name string) bool {
	return IsPackageFile(name) || strings.HasSuffix(name, string(KindDefinition))
}
