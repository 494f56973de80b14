package main

import "unity/cmd"

func main() {
	cmd.Execute()
}
