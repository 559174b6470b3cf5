package main

import "noodlemap/internal/cli"

func main() {
	cli.Execute()
}
