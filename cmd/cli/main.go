package main

import "github.com/fairlens/fairscan/pkg/cli"

func main() {
	cli.Execute()
}
