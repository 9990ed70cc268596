package main

import "github.com/imfpipe/imfpipe/cmd"

func main() {
	cmd.Execute()
}
