package main

import "github.com/opendelek/opendelek/internal/cli"

func main() {
	cli.Execute()
}
