package main

import "github.com/nextlevelbuilder/bk25/cmd"

func main() {
	cmd.Execute()
}
