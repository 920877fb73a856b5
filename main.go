package main

import (
	"github.com/AzielCF/az-postr/cmd"
)

func main() {
	cmd.Execute()
}
