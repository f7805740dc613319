package main

import (
	"os"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
