package main

import "github.com/frahmantamala/dormitory-management/cmd"

func main() {
	cmd.Execute()
}
