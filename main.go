package main

import "github.com/pansweep/pansweep/cmd/pansweep"

func main() { pansweep.Execute() }
