// kpalette extracts dominant colour palettes from images using seeded k-means clustering.
package main

import (
	"os"

	"github.com/jmylchreest/kpalette/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
