package main

import "github.com/kosen-tools/gyouji-cal/internal/cli"

func main() {
	cli.Execute()
}
