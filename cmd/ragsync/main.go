package main

import "ragsync/internal/cli"

func main() {
	cli.Execute()
}
