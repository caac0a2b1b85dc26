package main

import "github.com/calagora/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
