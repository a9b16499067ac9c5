package main

import "change-monitor/cmd"

func main() {
	cmd.Execute()
}
