// Command usnjrnl inspects a volume's change journal: enumerate
// volumes, query journal metadata, page through change records, and
// resolve stable file identities.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
