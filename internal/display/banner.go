// Package display provides user-facing output: banner, byte/bitrate formatting, and (later) render-plan and outlier logs.
package display

import (
	"fmt"
	"os"

	"github.com/coilpress/muxctl/internal/term"
)

// PrintBanner prints the "MuxMaster" ASCII art logo to stdout.
// If internal/term has enabled colors (Magenta set), the banner is printed in magenta, then reset.
func PrintBanner() {
	if term.Magenta != "" {
		fmt.Fprint(os.Stdout, term.Magenta)
	}
	fmt.Fprint(os.Stdout, ` __  __            __  __           _
|  \/  |_   ___  _|  \/  | __ _ ___| |_ ___ _ __
| |\/| | | | \ \/ / |\/| |/ _` + "`" + ` / __| __/ _ \ '__|
| |  | | |_| |>  <| |  | | (_| \__ \ ||  __/ |
|_|  |_|\__,_/_/\_\_|  |_|\__,_|___/\__\___|_|
`)
	if term.Magenta != "" {
		fmt.Fprintln(os.Stdout, term.NC)
	}
}
