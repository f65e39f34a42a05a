package main

import (
	"os"

	"github.com/AmatanHead/collective-blog/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
