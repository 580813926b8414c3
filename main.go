package main

import "github.com/civicconnect/civicconnect-services/cmd"

//go:generate swag init -g cmd/serve.go -o docs --parseDependency

func main() {
	cmd.Execute()
}
