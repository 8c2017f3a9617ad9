package main

import "github.com/KaramelBytes/prophecy-cli/cmd"

func main() {
	cmd.Execute()
}
