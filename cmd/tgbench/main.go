// cmd/tgbench/main.go
package main

import (
	"tgbench/internal/commands"
)

// main starts the tgbench CLI by delegating to the cobra root command
// defined in the commands package.
func main() {
	commands.Execute()
}
