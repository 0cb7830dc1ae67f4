package main

import (
	"github.com/clavelab/genehood/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
