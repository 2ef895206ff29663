package main

import "github.com/BenWhite02/marketing-kairos-sub004/internal/cli"

func main() {
	cli.Execute()
}
