package main

import "github.com/rkstudio585/mediactl/cmd"

func main() {
	cmd.Execute()
}
