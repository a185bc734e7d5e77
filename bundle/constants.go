package bundle

// FileKind represents the extension class of a member file inside a bundle.
type FileKind string

const (
	// KindStyle is a LaTeX style file defining a loadable package.
	KindStyle FileKind = ".sty"
	// KindClass is a LaTeX document class file.
	KindClass FileKind = ".cls"
	// KindDefinition is a low-level definition file (fonts, encodings).
	KindDefinition FileKind = ".def"
)

// BundleFile represents one half of the on-disk pair that makes up a bundle.
type BundleFile string

const (
	// DataSuffix is the suffix of the gzip-compressed payload blob.
	DataSuffix BundleFile = ".data.gz"
	// MetaSuffix is the suffix of the JSON metadata sidecar.
	MetaSuffix BundleFile = ".meta.json"
)

// RequiredPrefix is the install-tree root that every style, class, and
// definition file is expected to declare in its metadata path. Entries
// outside this prefix are not installable by the consuming resolver.
const RequiredPrefix = "/texlive/"

// extLen is the length of the fixed package-file extensions (".sty", ".cls").
// Package names are derived by stripping exactly this many characters.
const extLen = 4
