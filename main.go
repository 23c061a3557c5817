package main

import "weidu-driver/cmd"

func main() {
	cmd.Execute()
}
