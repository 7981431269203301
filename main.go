package main

import "github.com/arranf/MailChimpSync/cmd"

func main() {
	cmd.Execute()
}
