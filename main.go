package main

import "github/chapool/transfer-relay/cmd"

func main() {
	cmd.Execute()
}
