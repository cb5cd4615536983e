package main

import "github.com/khanhnv2901/securitytxt/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
