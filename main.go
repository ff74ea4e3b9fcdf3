// Package main is the entry point for the Lakechat CLI application.
package main

import (
	"lakechat/cli/cmd"
)

func main() {
	cmd.Execute()
}
