//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Test mg.Namespace

// Runs every package test.
func (Test) All() error {
	return sh.RunV("go", "test", "./...")
}

// Runs every package test with the race detector, which covers the worker
// pool and the config watcher.
func (Test) Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}
