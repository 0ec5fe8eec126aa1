package main

import "github.com/sadopc/smokebreak/internal/cli"

func main() {
	cli.Execute()
}
