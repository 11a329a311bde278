package mempool

import (
	"fmt"
	"os"
)

// trace enables verbose stderr tracing of every mutating pool operation.
// Flip to true locally when chasing a corruption report; never on in
// committed code.
const trace = false

func traceLog(s string, va ...interface{}) {
	if !trace {
		return
	}
	fmt.Fprintf(os.Stderr, "# mempool: "+s+"\n", va...)
}
