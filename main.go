package main

import "github.com/rapidkit/rkws/cmd"

func main() {
	cmd.Execute()
}
