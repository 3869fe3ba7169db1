package main

import "github.com/mx-space/pagecraft/cmd/pagectl/commands"

func main() {
	commands.Execute()
}
