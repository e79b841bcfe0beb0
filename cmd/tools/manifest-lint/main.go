// cmd/tools/manifest-lint/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/logger"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/content/loader"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/pkg/frameworks"
)

var (
	contentRoot string
	indexPath   string
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validateCmd.StringVar(&contentRoot, "content", "content", "Path to the framework content root")
	validateCmd.StringVar(&indexPath, "index", "content/index.json", "Path to the framework index file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateContent(); err != nil {
			fmt.Printf("Content validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Content validation passed.")

	case "help":
		fallthrough
	default:
		help()
	}
}

// validateContent runs the exact load path the portal runs at startup, so a
// green lint means a green boot.
func validateContent() error {
	index, err := frameworks.LoadIndex(indexPath)
	if err != nil {
		return fmt.Errorf("failed to load framework index: %w", err)
	}
	if err := index.Validate(); err != nil {
		return err
	}

	registry, err := loader.NewRegistry(contentRoot, logger.NewNoOpLogger())
	if err != nil {
		return err
	}
	if err := registry.LoadAll(index); err != nil {
		return err
	}

	for _, fw := range index.Frameworks {
		for _, ref := range fw.Manifests {
			manifest, err := registry.GetManifest(fw.Slug, ref.Name)
			if err != nil {
				return err
			}
			questions := 0
			for _, section := range manifest.Sections() {
				questions += len(section.Questions)
			}
			fmt.Printf("  %s/%s: %d section(s), %d question(s)\n",
				fw.Slug, ref.Name, len(manifest.Sections()), questions)
		}
	}
	return nil
}

func help() {
	fmt.Println("Usage: manifest-lint <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  validate   Load and schema-check every manifest the index declares")
	fmt.Println("             -content <dir>   framework content root (default: content)")
	fmt.Println("             -index <file>    framework index path (default: content/index.json)")
	fmt.Println("  help       Show this message")
}
