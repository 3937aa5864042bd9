package theme

import (
	"fmt"
)

// Banner returns the lexiscope banner.
func Banner() string {
	const cyan = "\033[36m"
	const magenta = "\033[35m"
	const yellow = "\033[33m"
	const reset = "\033[0m"

	art := "" +
		"   ┌─┐   " + magenta + "LEXISCOPE" + reset + "   ┌─┐\n" +
		cyan + "   │ │ ▁▂▃▅▇▅▃▂▁ │ │\n" + reset +
		cyan + "   └─┘ every word counted once └─┘\n" + reset +
		yellow + "   ──────────────────────────────\n" + reset +
		"   a lexical-diversity lens for X timelines\n"
	return art
}

// PrintBanner prints the banner to stdout.
func PrintBanner() {
	fmt.Print(Banner())
}
