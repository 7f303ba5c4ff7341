package main

import (
	"fmt"
	"os"

	// Adapter packages register themselves with the HAL registry.
	_ "github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal/adapters/can"
	_ "github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal/adapters/cli"
	_ "github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal/adapters/gpio"
	_ "github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal/adapters/serial"
	_ "github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal/adapters/spi"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
