package main

import (
	"log"

	"civitrack/internal"
)

func main() {
	app, err := internal.NewApp()
	if err != nil {
		log.Fatalf("failed to start civitrack: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("civitrack exited with error: %v", err)
	}
}
