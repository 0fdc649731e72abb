package main

import "github.com/chesscom/workreport/cmd"

func main() {
	cmd.Execute()
}
