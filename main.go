package main

import (
	"github.com/dev-tahir/xcoder-cli/cmd"
)

func main() {
	cmd.Execute()
}
