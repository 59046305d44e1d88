package main

import "github.com/launchpass/scand/cmd"

func main() {
	cmd.Execute()
}
