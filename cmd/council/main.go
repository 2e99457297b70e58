package main

import (
	"github.com/joho/godotenv"

	"github.com/lexcodex/swarmcouncil/app/cmd"
)

func main() {
	// A missing .env is normal; the key may come from the environment or config.
	_ = godotenv.Load()
	cmd.Execute()
}
