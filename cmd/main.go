package main

import "github.com/corray333/backend-labs/shop/internal/cli"

func main() {
	cli.Execute()
}
