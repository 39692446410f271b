// Package layout computes the page layout of a report as a list of drawing
// commands.
//
// Layout is a pure computation. A State holds the cursor, the page count
// and the commands accumulated so far; every block function takes a State
// and returns a new one, leaving its argument untouched. Nothing is drawn
// until render.Execute replays the commands against a backend.
//
// Each block first computes the height it needs. If that height does not
// fit below the cursor, exactly one page break is inserted and the cursor
// returns to the top margin; a block is never split across pages. After
// all content is laid out, StampFooters adds a footer to every page once
// the final page count is known. A stamped State accepts no further blocks.
package layout
