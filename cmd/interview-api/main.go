package main

import (
	"log"

	"github.com/futig/interview-flow/internal/builder"
)

func main() {
	app, err := builder.Build()
	if err != nil {
		log.Fatalf("build interview api: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("interview api stopped with error: %v", err)
	}
}
