package main

import "sessionchart/internal/cli"

func main() {
	cli.Execute()
}
