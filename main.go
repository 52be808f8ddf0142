package main

import "github.com/frahmantamala/dealership-crm/cmd"

func main() {
	cmd.Execute()
}
