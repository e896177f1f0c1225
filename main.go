package main

import (
	"lumen/internal/cli"
)

func main() {
	cli.Execute()
}
