package main

import "SafetyCompliance/backend/go/cmd/scm/cmd"

func main() {
	cmd.Execute()
}
