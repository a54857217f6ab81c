package main

import "luthier/cmd"

func main() {
	cmd.Execute()
}
