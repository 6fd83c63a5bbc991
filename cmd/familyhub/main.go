// Package main is the entry point for the FamilyHub API server and its
// maintenance commands.
package main

func main() {
	Execute()
}
