package main

import "github.com/will-rowe/minimizer/cmd"

func main() {
	cmd.Execute()
}
