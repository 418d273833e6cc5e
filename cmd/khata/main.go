package main

import (
	"os"

	"github.com/IlyasAtabaev731/khata/internal/commands"
)

func main() {
	os.Exit(commands.Execute())
}
