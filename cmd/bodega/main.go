// Command bodega is the warehouse supply and tool custody ledger.
package main

import "github.com/mesh-intelligence/bodega/internal/cli"

func main() {
	cli.Execute()
}
