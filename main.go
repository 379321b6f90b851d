package main

import "github.com/rsdocs/docseek/cmd"

func main() {
	cmd.Execute()
}
