package main

import "github.com/oshokin/ota-updater/cmd/ota-packager/cmd"

func main() {
	cmd.Execute()
}
