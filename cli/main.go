package main

import "ocm.software/open-component-model/distribution/cli/cmd"

func main() {
	cmd.Execute()
}
