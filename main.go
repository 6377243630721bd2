package main

import "github.com/gitsocial-org/gitsocial-sub002/cmd"

func main() {
	cmd.Execute()
}
