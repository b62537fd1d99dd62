package main

import "github.com/nongsanviet/shopcli/cmd"

func main() {
	cmd.Execute()
}
