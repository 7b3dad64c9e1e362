package main

import "nathanbeddoewebdev/eventwatch/cmd"

func main() {
	cmd.Execute()
}
