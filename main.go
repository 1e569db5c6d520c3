// ABOUTME: Entry point for the capacity-planner binary
// ABOUTME: Hosts the local analysis commands, the API server and the remote client

package main

import (
	"fmt"
	"os"

	"github.com/obgclub/capacity-planner/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
