package main

import (
	"github.com/docstorm/docstorm/cmd/docstorm/cmd"
	"github.com/docstorm/docstorm/internal/common"
)

func main() {
	common.ConfigureLogging()
	cmd.Execute()
}
