package main

import "github.com/oshokin/ota-updater/cmd/ota-updater/cmd"

func main() {
	cmd.Execute()
}
