package main

import "github.com/mchmarny/cherry/pkg/cli"

func main() {
	cli.Execute()
}
