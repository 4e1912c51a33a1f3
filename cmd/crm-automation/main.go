package main

import "github.com/LENAX/crm-automation/pkg/cli/cmd"

func main() {
	cmd.Execute()
}
