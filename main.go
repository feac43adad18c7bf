package main

import "github.com/Digital-Shane/metamerge/internal/cmd"

func main() {
	cmd.Execute()
}
