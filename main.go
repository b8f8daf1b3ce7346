package main

import "github.com/mvasek/face-gallery/cmd"

func main() {
	cmd.Execute()
}
