package main

import "github.com/cmmoran/viewbindgen/cmd"

func main() {
	cmd.Execute()
}
