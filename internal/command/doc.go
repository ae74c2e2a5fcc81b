// Package command builds the packaging tool's command line.
//
// The builder takes a model.ValidatedConfig, so an unchecked config can
// never reach it, and produces a Command value holding the program, the
// ordered argument vector and the working directory the process supervisor
// needs to launch it.
package command
