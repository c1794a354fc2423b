package main

import "github.com/mkadlec/binsim/internal/cli"

func main() {
	cli.Execute()
}
