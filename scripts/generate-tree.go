//go:build ignore

// Package main generates a synthetic directory tree for exercising a watch.
// Usage: go run scripts/generate-tree.go -depth 3 -fanout 8 -files 4 -output testdata/tree
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

var (
	depth     = flag.Int("depth", 3, "Levels of directories below the root")
	fanout    = flag.Int("fanout", 8, "Subdirectories per directory")
	files     = flag.Int("files", 4, "Files per directory")
	outputDir = flag.String("output", "testdata/tree", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var extensions = []string{".txt", ".md", ".go", ".json", ".yaml"}

func main() {
	flag.Parse()

	if *depth < 0 || *fanout < 1 || *files < 0 {
		fmt.Fprintln(os.Stderr, "depth must be >= 0, fanout >= 1, files >= 0")
		os.Exit(2)
	}

	rng := rand.New(rand.NewSource(*seed))
	dirs, written, err := generate(rng, *outputDir, *depth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d directories and %d files in %s\n", dirs, written, *outputDir)
	fmt.Printf("Check inotify headroom with: tangerine-watch doctor %s\n", *outputDir)
}

// generate fills dir and recurses until level reaches zero.
func generate(rng *rand.Rand, dir string, level int) (dirs, written int, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, 0, err
	}
	dirs = 1

	for i := 0; i < *files; i++ {
		name := fmt.Sprintf("file_%03d%s", i, extensions[rng.Intn(len(extensions))])
		content := make([]byte, 64+rng.Intn(1024))
		for j := range content {
			content[j] = byte('a' + rng.Intn(26))
		}
		if err := os.WriteFile(filepath.Join(dir, name), content, 0644); err != nil {
			return dirs, written, err
		}
		written++
	}

	if level == 0 {
		return dirs, written, nil
	}
	for i := 0; i < *fanout; i++ {
		d, w, err := generate(rng, filepath.Join(dir, fmt.Sprintf("dir_%02d", i)), level-1)
		dirs += d
		written += w
		if err != nil {
			return dirs, written, err
		}
	}
	return dirs, written, nil
}
