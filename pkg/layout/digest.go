package layout

import (
	"fmt"

	"github.com/spaolacci/murmur3"
)

// Digest fingerprints the command stream. Two States with the same
// commands have the same digest, so it identifies a layout independently
// of the PDF bytes produced from it.
func (s State) Digest() string {
	h := murmur3.New128()
	for _, c := range s.cmds {
		fmt.Fprintf(h, "%d|%d|%.3f|%.3f|%.3f|%.3f|%.3f|%.3f|%q|%s|%s|%.1f|%d,%d,%d|%t\n",
			c.Op, c.Page, c.X, c.Y, c.W, c.H, c.X2, c.Y2, c.Text,
			c.Font.Family, c.Font.Style, c.Font.Size,
			c.Color.R, c.Color.G, c.Color.B, c.Footer)
	}
	hi, lo := h.Sum128()
	return fmt.Sprintf("%016x%016x", hi, lo)
}
