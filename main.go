package main

import "github.com/subdash/subdash/cmd"

func main() {
	cmd.Execute()
}
