package main

import "option-pricer/internal/cli"

func main() {
	cli.Execute()
}
