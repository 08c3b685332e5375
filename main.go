package main

import "github.com/snowwise/snowwise/cmd"

func main() {
	cmd.Execute()
}
