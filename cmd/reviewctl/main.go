package main

import "reviewhub/internal/cli"

func main() {
	cli.Execute()
}
