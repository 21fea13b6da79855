package main

import (
	"os"

	biographercmder "github.com/wjcornelius/VECTOR-Biographer/cmd/biographer"
)

func main() {
	cmd := biographercmder.NewBiographerCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
