package theme

import (
	"fmt"
)

// Banner returns the CLI banner.
func Banner() string {
	const cyan = "\033[36m"
	const yellow = "\033[33m"
	const reset = "\033[0m"

	art := "" +
		cyan + "  _            _ _   _           _\n" + reset +
		cyan + " | |___      _(_) |_| |__   ___ | |_\n" + reset +
		cyan + " | __\\ \\ /\\ / / | __| '_ \\ / _ \\| __|\n" + reset +
		cyan + " | |_ \\ V  V /| | |_| |_) | (_) | |_\n" + reset +
		cyan + "  \\__| \\_/\\_/ |_|\\__|_.__/ \\___/ \\__|\n" + reset +
		yellow + " ...just another tweeter bot\n" + reset
	return art
}

// PrintBanner prints the banner to stdout.
func PrintBanner() {
	fmt.Print(Banner())
}
