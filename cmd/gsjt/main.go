package main

import "gsjt/internal/cli"

func main() {
	cli.Execute()
}
