// Package log configures the single package-level logger shared by the
// transpiler and its command-line front end, in the same spirit as the
// teacher's package-level logger in pongo2_options.go, rebuilt on top of
// loggo so verbosity is a level rather than a bare on/off switch.
package log

import "github.com/juju/loggo"

// Logger is the shared logger for the whole module. Every package that
// wants to log writes through this value instead of constructing its own.
var Logger = loggo.GetLogger("indentscript")

// SetVerbose switches the logger between the module's two supported
// verbosity levels: WARNING by default, DEBUG when the CLI's
// .indentscriptrc sets verbose.
func SetVerbose(verbose bool) {
	if verbose {
		Logger.SetLogLevel(loggo.DEBUG)
		return
	}
	Logger.SetLogLevel(loggo.WARNING)
}
