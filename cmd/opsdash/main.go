// Package main provides the entry point for the opsdash CLI.
//
// opsdash talks to the operations dashboard backend: the commander
// activity log, weather, battlefield analysis, image and video detection,
// UAV and camouflage detection, the live camera viewer and the inbox.
//
// Usage:
//
//	opsdash logs --user alpha --from 2025-03-01
//	opsdash detect images --filter person photo1.jpg photo2.png
//	opsdash inbox send --to alpha "Hold position"
//
// See --help for all available options.
package main

// main is the entry point for opsdash.
func main() {
	Execute()
}
