// po is the command-line entry point for purchase order intake and approval.
//
// Usage:
//
//	po process <source>     Extract, audit and evaluate one order document
//	po evaluate <file>      Evaluate summary or order JSON
//	po audit <file>         Run the advisory checks
//	po send <image>         Run a document through both agents
//	po upload <file>        Upload a document to GCS
//	po migrate              Create or upgrade the decision ledger
package main

import "github.com/dvloznov/po-agents/internal/commands"

func main() {
	commands.Execute()
}
