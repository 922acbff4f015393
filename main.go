package main

import "github.com/KaramelBytes/abeval-cli/cmd"

func main() {
	cmd.Execute()
}
