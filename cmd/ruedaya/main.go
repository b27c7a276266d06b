// Command ruedaya runs the RuedaYa storefront edge: tenant resolution in front
// of the page renderer plus the sign-in and dealer context API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
