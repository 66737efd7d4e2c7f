package main

import "github.com/CheesyGamer77/PrisonWarden/cmd"

func main() {
	cmd.Execute()
}
