//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets (all, race, cover, postgres).
type Test mg.Namespace

// All runs all tests.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Race runs all tests with the race detector.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover runs all tests and writes coverage.out.
func (Test) Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func=coverage.out")
}

// Postgres runs the ledger tests against the database named by
// $BODEGA_TEST_POSTGRES_DSN.
func (Test) Postgres() error {
	if os.Getenv("BODEGA_TEST_POSTGRES_DSN") == "" {
		return mg.Fatal(1, "BODEGA_TEST_POSTGRES_DSN is not set")
	}
	return sh.RunV(binGo, "test", "-v", "-run", "Postgres", "./internal/ledger/...")
}
