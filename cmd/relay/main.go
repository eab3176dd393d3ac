// Command relay runs the price relay hub or a price-reporting agent.
//
//	relay hub [addr] [--interval 10s]
//	relay agent <hub-url> <token> [--tokens tokens.json]
//	relay version
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
