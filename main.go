package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/texdist/bundle-tools/bundle"
	"github.com/texdist/bundle-tools/registry"
	"go.yaml.in/yaml/v3"
)

// Config is a business object holding the application's configuration.
type Config struct {
	// Dir is the directory holding bundle payloads and metadata sidecars.
	Dir string
	// RequiredPrefix is the install-tree root all style/class/def files must declare.
	RequiredPrefix string
	// SamplePackages are printed as examples after a deps run when present in the output.
	SamplePackages []string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: bundle-tools <command> [flags]")
		fmt.Println("Commands: deps, sync")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "deps":
		runDeps(os.Args[2:])
	case "sync":
		runSync(os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

// runDeps executes the 'deps' subcommand: scan bundle payloads for package
// inclusion directives and write the aggregated dependency map.
func runDeps(args []string) {
	fs := flag.NewFlagSet("deps", flag.ExitOnError)
	dirFlag := fs.String("dir", "", "Directory containing bundle .data.gz and .meta.json files")
	mapFlag := fs.String("map", "", "Path to package-map.json (default <dir>/package-map.json)")
	outFlag := fs.String("out", "", "Path to write package-deps.json (default <dir>/package-deps.json)")
	confPath := fs.String("config", "bundle-tools.yaml", "Path to config file")
	sign := fs.Bool("sign", false, "Clearsign written artifacts with GPG_PRIVATE_KEY")
	fs.Parse(args)

	config, err := decodeConfig(*confPath)
	if err != nil {
		fmt.Printf("Fatal: Could not read or parse config file %s: %v\n", *confPath, err)
		os.Exit(1)
	}

	dir := resolveDir(*dirFlag, config)
	mapPath := orDefault(*mapFlag, filepath.Join(dir, "package-map.json"))
	outPath := orDefault(*outFlag, filepath.Join(dir, "package-deps.json"))

	// The known-package registry is a required input: without it the job
	// cannot tell which discovered dependencies the bundles already cover.
	// Discovered dependencies are NOT filtered against it; packages outside
	// the known set are kept and resolved externally at a later stage.
	known, err := registry.LoadPackageMap(mapPath)
	if err != nil {
		fmt.Printf("Fatal: Could not read package map %s: %v\n", mapPath, err)
		os.Exit(1)
	}

	all, err := registry.ExtractDeps(dir, func(ev fmt.Stringer) {
		switch e := ev.(type) {
		case registry.EventBundleScanned:
			fmt.Printf("Processing %s... Found %d packages with deps\n", e.Bundle, e.Packages)
		case registry.EventMetadataError:
			fmt.Printf("Warning: skipping %s: %s\n", e.Bundle, e.Err)
		}
	})
	if err != nil {
		fmt.Printf("Fatal: %v\n", err)
		os.Exit(1)
	}

	doc := registry.DepsDoc{Comment: registry.DepsComment, Packages: all}
	if err := doc.Save(outPath); err != nil {
		fmt.Printf("Fatal: Could not write %s: %v\n", outPath, err)
		os.Exit(1)
	}

	fmt.Printf("\nWrote %d packages with dependencies to %s\n", len(all), outPath)

	external := make(map[string]struct{})
	for _, deps := range all {
		for _, dep := range deps {
			if _, ok := known[dep]; !ok {
				external[dep] = struct{}{}
			}
		}
	}
	if len(external) > 0 {
		fmt.Printf("%d required packages are outside the known bundles (resolved externally)\n", len(external))
	}

	fmt.Println("\nSample dependencies:")
	for _, pkg := range config.SamplePackages {
		if deps, ok := all[pkg]; ok {
			fmt.Printf("  %s: %v\n", pkg, deps)
		}
	}

	if *sign {
		signArtifacts(outPath)
	}
}

// runSync executes the 'sync' subcommand: rebuild the package map and file
// manifest from bundle metadata, preserving curated map entries.
func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	dirFlag := fs.String("dir", "", "Directory containing bundle .meta.json files")
	mapFlag := fs.String("map", "", "Path to package-map.json (default <dir>/package-map.json)")
	manifestFlag := fs.String("manifest", "", "Path to write file-manifest.json (default <dir>/file-manifest.json)")
	confPath := fs.String("config", "bundle-tools.yaml", "Path to config file")
	sign := fs.Bool("sign", false, "Clearsign written artifacts with GPG_PRIVATE_KEY")
	fs.Parse(args)

	config, err := decodeConfig(*confPath)
	if err != nil {
		fmt.Printf("Fatal: Could not read or parse config file %s: %v\n", *confPath, err)
		os.Exit(1)
	}

	dir := resolveDir(*dirFlag, config)
	mapPath := orDefault(*mapFlag, filepath.Join(dir, "package-map.json"))
	manifestPath := orDefault(*manifestFlag, filepath.Join(dir, "file-manifest.json"))

	// Load the current map to preserve manually added entries. A missing
	// map means a first run; a malformed one is fatal.
	existing := registry.PackageMap{}
	if m, err := registry.LoadPackageMap(mapPath); err == nil {
		existing = m
	} else if !os.IsNotExist(err) {
		fmt.Printf("Fatal: Could not parse package map %s: %v\n", mapPath, err)
		os.Exit(1)
	}

	merged, manifest, res, err := registry.Sync(dir, config.RequiredPrefix, existing, func(ev fmt.Stringer) {
		if e, ok := ev.(registry.EventMetadataError); ok {
			fmt.Printf("ERROR: Could not parse %s: %s\n", e.Bundle, e.Err)
		}
	})
	if err != nil {
		fmt.Printf("Fatal: %v\n", err)
		os.Exit(1)
	}

	if err := merged.Save(mapPath); err != nil {
		fmt.Printf("Fatal: Could not write %s: %v\n", mapPath, err)
		os.Exit(1)
	}
	if err := manifest.Save(manifestPath); err != nil {
		fmt.Printf("Fatal: Could not write %s: %v\n", manifestPath, err)
		os.Exit(1)
	}

	fmt.Printf("Synced %s:\n", mapPath)
	fmt.Printf("  Previous entries: %d\n", res.Previous)
	fmt.Printf("  Auto-discovered: %d\n", res.Discovered)
	fmt.Printf("  Final entries: %d\n", res.Final)
	fmt.Printf("  New packages added: %d\n", res.NewPackages)

	fmt.Printf("\nSynced %s:\n", manifestPath)
	fmt.Printf("  Total files: %d\n", res.ManifestFiles)

	if len(res.Issues) > 0 {
		fmt.Printf("\nWARNING: %d files have incorrect paths (should start with %s):\n", len(res.Issues), config.RequiredPrefix)
		for i, issue := range res.Issues {
			if i == 10 {
				fmt.Printf("  ... and %d more\n", len(res.Issues)-10)
				break
			}
			fmt.Printf("  %s: %s\n", issue.Bundle, issue.FullPath)
		}
	}

	if *sign {
		signArtifacts(mapPath, manifestPath)
	}
}

// signArtifacts clearsigns the given files with the key from GPG_PRIVATE_KEY.
// Requesting signing without a key is fatal: an unsigned artifact must not
// pass for a signed run.
func signArtifacts(paths ...string) {
	key := os.Getenv("GPG_PRIVATE_KEY")
	if key == "" {
		fmt.Println("Fatal: -sign requires GPG_PRIVATE_KEY")
		os.Exit(1)
	}
	for _, path := range paths {
		if err := registry.SignArtifact(path, key); err != nil {
			fmt.Printf("Fatal: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Signed %s.asc\n", path)
	}
}

// resolveDir picks the bundles directory: explicit flag, then config, then
// the working directory.
func resolveDir(flagValue string, config *Config) string {
	if flagValue != "" {
		return flagValue
	}
	if config.Dir != "" {
		return config.Dir
	}
	return "."
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

// decodeConfig reads the optional YAML configuration. A missing file yields
// the defaults; a malformed file is an error.
func decodeConfig(path string) (*Config, error) {
	// Internal DTOs for YAML deserialization
	type yamlBundles struct {
		Dir            string `yaml:"dir"`
		RequiredPrefix string `yaml:"required_prefix"`
	}
	type yamlDeps struct {
		SamplePackages []string `yaml:"sample_packages"`
	}
	type yamlConfig struct {
		Bundles yamlBundles `yaml:"bundles"`
		Deps    yamlDeps    `yaml:"deps"`
	}

	config := &Config{
		RequiredPrefix: bundle.RequiredPrefix,
		SamplePackages: []string{"geometry", "hyperref", "tikz", "amsmath", "fontspec"},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	var dto yamlConfig
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, err
	}

	// Map DTO to business object
	if dto.Bundles.Dir != "" {
		config.Dir = dto.Bundles.Dir
	}
	if dto.Bundles.RequiredPrefix != "" {
		config.RequiredPrefix = dto.Bundles.RequiredPrefix
	}
	if len(dto.Deps.SamplePackages) > 0 {
		config.SamplePackages = dto.Deps.SamplePackages
	}

	return config, nil
}
