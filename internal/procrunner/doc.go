// Package procrunner executes external tools with captured output, line
// streaming, and cancellation that terminates the whole process tree.
package procrunner
