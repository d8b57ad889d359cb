//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "itemtranslate"

// Default target to run when none is specified
var Default = Build

// Build compiles the itemtranslate binary
func Build() error {
	mg.Deps(Vet)
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-o", binary, "./cmd/itemtranslate")
}

// Test runs the unit tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Integration runs the tests that call real provider APIs. Needs GROQ_API_KEY.
func Integration() error {
	if os.Getenv("GROQ_API_KEY") == "" {
		return fmt.Errorf("GROQ_API_KEY is not set")
	}
	return sh.RunV("go", "test", "-run", "Integration", "./internal/translation/...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install installs the binary into GOPATH/bin
func Install() error {
	return sh.RunV("go", "install", "./cmd/itemtranslate")
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm(binary)
}
