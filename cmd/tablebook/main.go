package main

import "github.com/example/table-booking/cmd"

func main() {
	cmd.Execute()
}
