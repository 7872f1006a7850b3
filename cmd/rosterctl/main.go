package main

import "github.com/mcoot/roster/internal/cli"

func main() {
	cli.Execute()
}
