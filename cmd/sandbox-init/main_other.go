//go:build !linux

package main

import (
	"fmt"
	"os"

	"github.com/codearena/codearena-backend/internal/sandbox"
)

func main() {
	fmt.Fprintln(os.Stderr, "sandbox-init is only supported on linux")
	os.Exit(sandbox.SetupFailureExit)
}
