package main

import (
	"github.com/victoralfred/gospawn/internal/cli"
)

func main() {
	cli.Execute()
}
