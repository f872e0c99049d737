package main

import (
	"github.com/battlesnakeio/fruitsnake/cmd/fruitsnake/commands"
)

func main() {
	commands.Execute()
}
