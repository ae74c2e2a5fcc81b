// Package model defines the domain types and value objects for the
// pyinstaller-packager CLI.
//
// This package contains the packaging job configuration (Config), its
// validated form (ValidatedConfig), the normalization rules applied to raw
// user input for data files and hidden imports, and the validation error
// taxonomy. It has no dependencies beyond the standard library and the
// filesystem checks needed by validation.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
