package main

import "github.com/vietddude/oracle-updater/internal/cli"

func main() {
	cli.Execute()
}
