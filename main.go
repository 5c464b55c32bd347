package main

import "github.com/nethalo/pgidx/cmd"

func main() {
	cmd.Execute()
}
