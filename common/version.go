package common

import (
	"errors"
	"fmt"
)

const (
	major = 0
	minor = 1
	patch = 0

	// Oldest ledger format version which can still be opened by the current
	// code.
	prevMajor = 0
	prevMinor = 1
	prevPatch = 0

	Version = major*1_000_000 + minor*1_000 + patch

	PrevVersion = prevMajor*1_000_000 + prevMinor*1_000 + prevPatch
)

var (
	// ErrVersionMismatch is returned by CheckVersion if the stored ledger is
	// older than PrevVersion.
	ErrVersionMismatch = errors.New("previous version mismatch")

	// ErrVersionTooNew is returned by CheckVersion if the stored ledger was
	// created by a newer version of the code.
	ErrVersionTooNew = errors.New("ledger is of a newer version")
)

// CheckVersion checks that the ledger format version stored at instantiation
// can be served by the current code.
func CheckVersion(from int) error {
	if from < PrevVersion {
		return fmt.Errorf("%w: expected >=%d, got %d", ErrVersionMismatch, PrevVersion, from)
	}
	if from > Version {
		return fmt.Errorf("%w: %d > %d", ErrVersionTooNew, from, Version)
	}
	return nil
}

// VersionString returns human-readable representation of the given version.
func VersionString(v int) string {
	return fmt.Sprintf("%d.%d.%d", v/1_000_000, v/1_000%1_000, v%1_000)
}
