package main

import "taskplan/internal/cli"

func main() {
	cli.Execute()
}
