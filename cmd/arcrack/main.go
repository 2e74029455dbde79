// Package main provides the entry point for the arcrack CLI.
//
// arcrack recovers forgotten passwords of encrypted archives. It runs
// prioritized candidate generators and checks every candidate with an
// external archive test command such as 7z.
//
// Usage:
//
//	arcrack crack <archive>
//	arcrack crack --resume <archive>
//	arcrack sessions list
//
// See --help for all available options.
package main

// main is the entry point for arcrack.
func main() {
	Execute()
}
