package main

import "github.com/amterp/crack/internal/cli"

func main() {
	cli.Run()
}
