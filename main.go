package main

import "github.com/gaurav-prasanna/adpipe/cmd"

func main() {
	cmd.Execute()
}
