package main

import "github.com/vietddude/vetclinic/internal/cli"

func main() {
	cli.Execute()
}
