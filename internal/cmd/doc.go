// Package cmd provides the command-line interface implementation for dataminer.
//
// This package contains all the subcommand implementations for the dataminer CLI tool.
// It uses the Cobra library for command structure and Fang for styling.
//
// The package is organized into the following commands:
//   - root: Main command coordinator; loads the config file and sets up logging
//   - unpack: Recursive archive expansion with the tree cache
//   - watch: Re-run unpack whenever the input archive changes
//   - validate: Tree record invariants and disk agreement
//   - count: Tree statistics and file counting
//   - normalize: Resize the images listed in a tree
//   - seed: Nested sample archive generation
//
// Each command is implemented as a separate file with its own constructor function
// that returns a *cobra.Command. Flags given on the command line override values
// from the config file; everything else comes from the file or the defaults.
package cmd
