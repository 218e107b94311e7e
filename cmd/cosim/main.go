package main

import "cosim/internal/cli"

func main() {
	cli.Execute()
}
