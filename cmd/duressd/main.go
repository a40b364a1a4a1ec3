package main

import "github.com/duressd/duressd/internal/cli"

func main() {
	cli.Execute()
}
