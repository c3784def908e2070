// Package version provides version information and build metadata for dataminer.
//
// This package handles version reporting for the dataminer CLI, supporting both
// compile-time version injection via build flags and runtime version detection
// using Go's build info. It provides a flexible versioning system that works
// in development, CI/CD, and release scenarios.
//
// Version Information Sources:
//   - Compile-time variables (Version, Commit, Date) set via -ldflags
//   - Runtime build info from debug.ReadBuildInfo(), including whether the
//     working tree had local changes
//   - The Go toolchain and platform the binary was built for
//   - Fallback defaults for development builds
//
// The package provides multiple version formats:
//   - GetVersion(): Simple version string
//   - GetFullVersion(): Formatted version with commit and build date
//   - GetInfo(): Complete version information as a struct
//   - PrintVersion(): Human-readable version output, used by the version command
//
// Build Integration:
// Release builds set version information with:
//
//	-ldflags "-X github.com/dendrascience/dataminer/version.Version=v1.0.0 -X github.com/dendrascience/dataminer/version.Commit=abc123"
//
// This ensures consistent version reporting across all dataminer subcommands.
package version
