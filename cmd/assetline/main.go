package main

import "github.com/DrSkyle/assetline/cmd/assetline/commands"

func main() {
	commands.Execute()
}
