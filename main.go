// Copyright © 2024 The perlscope authors

package main

import "github.com/luthersystems/perlscope/cmd"

func main() {
	cmd.Execute()
}
