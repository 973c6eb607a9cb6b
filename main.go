package main

import "github.com/mselser95/polyshark/cmd"

func main() {
	cmd.Execute()
}
