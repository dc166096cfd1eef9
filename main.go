package main

import "github.com/opsledger/compliance-engine/cmd"

func main() {
	cmd.Execute()
}
