package bundle

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Directive patterns for package inclusion in TeX sources. Both take an
// optional bracketed options group followed by a mandatory braced,
// comma-separated list of package names.
var (
	requirePattern = regexp.MustCompile(`\\RequirePackage(?:\[[^\]]*\])?\{([^}]+)\}`)
	usePattern     = regexp.MustCompile(`\\usepackage(?:\[[^\]]*\])?\{([^}]+)\}`)
)

// ScanDependencies extracts the set of packages that content textually
// requires via \RequirePackage or \usepackage directives. Matched names are
// trimmed, deduplicated across both directive forms, and ownPkg is excluded
// so a package never depends on itself. The result is sorted; nil is
// returned when no dependencies are found.
//
// The function is pure over the byte buffer so it can be unit tested
// independently of archive I/O.
func ScanDependencies(content []byte, ownPkg string) []string {
	found := make(map[string]struct{})
	for _, pattern := range []*regexp.Regexp{requirePattern, usePattern} {
		for _, m := range pattern.FindAllSubmatch(content, -1) {
			for _, raw := range strings.Split(DecodeLossy(m[1]), ",") {
				pkg := strings.TrimSpace(raw)
				if pkg != "" && pkg != ownPkg {
					found[pkg] = struct{}{}
				}
			}
		}
	}
	if len(found) == 0 {
		return nil
	}
	deps := make([]string, 0, len(found))
	for pkg := range found {
		deps = append(deps, pkg)
	}
	sort.Strings(deps)
	return deps
}

// DecodeLossy converts raw bytes to a string, dropping undecodable byte
// sequences instead of failing. TeX sources in the wild mix encodings, so
// directive arguments are decoded best-effort rather than aborting a scan.
func DecodeLossy(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r != utf8.RuneError || size > 1 {
			sb.WriteRune(r)
		}
		b = b[size:]
	}
	return sb.String()
}
