package main

import "github.com/iksnae/patch-vault/cmd"

func main() {
	cmd.Execute()
}
