package main

import "github.com/will-rowe/sketchcodec/cmd"

func main() {
	cmd.Execute()
}
