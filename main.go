package main

import "github.com/probelab/probelab-app/cmd/server"

func main() {
	server.Run()
}
