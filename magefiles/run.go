//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Run mg.Namespace

// Renders the testbed scene and writes the last frame into out/.
// FRAMES and CONFIG override the frame count and the pipeline file.
func (Run) Testbed() error {
	args := []string{"run", ".", "-out", "out"}
	if frames := os.Getenv("FRAMES"); frames != "" {
		args = append(args, "-frames", frames)
	}
	if config := os.Getenv("CONFIG"); config != "" {
		args = append(args, "-config", config)
	}
	fmt.Println("Run testbed...")
	if _, err := executeCmd("go", withArgs(args...), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs go vet on every package.
func (Run) Lint() error {
	return sh.RunV("go", "vet", "./...")
}
