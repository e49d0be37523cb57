//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/sh"
)

// Default target when running mage without arguments.
var Default = Build

// Build builds the server binary.
func Build() error {
	fmt.Println("Building server...")
	return sh.Run("go", "build", "-o", "bin/server", "./cmd/server")
}

// Test runs the test suite.
func Test() error {
	fmt.Println("Running tests...")
	return sh.RunV("go", "test", "-race", "./...")
}

// TestCover runs tests with coverage.
func TestCover() error {
	fmt.Println("Running tests with coverage...")
	if err := sh.RunV("go", "test", "-race", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func=coverage.out")
}

// Lint runs golangci-lint.
func Lint() error {
	fmt.Println("Running linter...")
	return sh.RunV("golangci-lint", "run", "./...")
}

// Vet runs go vet.
func Vet() error {
	fmt.Println("Running go vet...")
	return sh.RunV("go", "vet", "./...")
}

// Tidy runs go mod tidy.
func Tidy() error {
	fmt.Println("Tidying modules...")
	return sh.Run("go", "mod", "tidy")
}

// Clean removes build artifacts.
func Clean() error {
	fmt.Println("Cleaning...")
	for _, path := range []string{"bin", "coverage.out"} {
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}
	return nil
}

// Dev builds and runs the server for development.
func Dev() error {
	if err := Build(); err != nil {
		return err
	}
	return sh.RunV("./bin/server")
}

// All runs tidy, vet, lint, test, and build.
func All() error {
	for _, step := range []func() error{Tidy, Vet, Lint, Test, Build} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// CI runs the CI pipeline (tidy, vet, test with coverage).
func CI() error {
	for _, step := range []func() error{Tidy, Vet, TestCover} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
