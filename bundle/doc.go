// Package bundle provides a pure Go library for reading TeX Live package
// bundles and their offset metadata.
//
// # Design Philosophy
//
// A bundle is a flat archive of many small text files (style, class, and
// definition files) stored as a single gzip-compressed payload blob next to
// a JSON sidecar that records, for every member file, its name, its logical
// install path, and its byte range within the decompressed payload. The
// package operates entirely in-memory: a payload is decompressed once,
// member files are sliced out of it by offset, and nothing is ever written
// back. This makes the library safe to run against a live bundle directory
// and trivial to test against fixtures built in a temp directory.
//
// # Features
//
// Bundle access:
//   - Discover bundle pairs (<name>.data.gz + <name>.meta.json) in a
//     directory, in deterministic sorted order.
//   - Parse metadata sidecars into structured file entries.
//   - Decompress payloads and slice member content by byte range, with
//     range validation.
//
// Dependency scanning:
//   - Extract \RequirePackage and \usepackage directives from style file
//     content as a pure function over byte buffers.
//   - Lossy UTF-8 decoding that drops undecodable byte sequences instead
//     of failing, matching how upstream TeX sources are handled.
package bundle
