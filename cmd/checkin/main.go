package main

import (
	"os"
)

func main() {
	root, r := newRootCmd()
	err := root.Execute()
	r.Close()
	if err != nil {
		os.Exit(1)
	}
}
