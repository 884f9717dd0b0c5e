/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/autopub/publish-gin/cmd"

func main() {
	cmd.Execute()
}
