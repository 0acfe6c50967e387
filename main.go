// Idiomatic entrypoint for the Cobra CLI, which delegates to the root
// command in cmd/root.go.
package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/elise-sim/elise/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
