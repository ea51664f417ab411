// Package main is the entry point for the nlquery service and CLI.
package main

import (
	"github.com/JonMunkholm/nlquery/cmd"
)

func main() {
	cmd.Execute()
}
