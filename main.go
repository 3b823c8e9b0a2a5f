// Package main provides the entry point for the osprey application.
//
// Osprey is an offensive security assessment framework front-end. It
// resolves the raw command line into a validated configuration, sequences
// the startup of the session store and the profile registries, and drives
// the scan engine over the requested target scope.
//
// Usage:
//
//	osprey -g web example.com
//	osprey -g network -t active scope.txt
//	osprey -g auxiliary -- RHOST=10.0.0.5 RPORT=445
//	osprey -l web
package main

import (
	"github.com/osprey-sec/osprey/cmd"
)

func main() {
	cmd.Execute()
}
