package main

import "os"

func main() {
	c := newCLI(os.Stdin, os.Stdout, os.Stderr)
	err := newRootCmd(c).Execute()
	c.close()
	if err != nil {
		os.Exit(1)
	}
}
