package main

import "github.com/fulmenhq/navkit/cmd"

func main() {
	cmd.Execute()
}
