package main

import "github.com/spec-kit/edushare/cmd/accessctl/cmd"

func main() {
	cmd.Execute()
}
