package main

import "vidsum/internal/cli"

func main() {
	cli.Execute()
}
