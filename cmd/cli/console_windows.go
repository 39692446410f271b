//go:build windows

package main

import (
	"golang.org/x/sys/windows"
)

// Switch the console to UTF-8 and enable ANSI sequences so report
// summaries and lipgloss styles render on Windows 10+ terminals.
func init() {
	const utf8CodePage = 65001
	_ = windows.SetConsoleOutputCP(utf8CodePage)
	_ = windows.SetConsoleCP(utf8CodePage)

	for _, std := range []uint32{windows.STD_ERROR_HANDLE, windows.STD_OUTPUT_HANDLE} {
		h, err := windows.GetStdHandle(std)
		if err != nil {
			continue
		}
		var mode uint32
		if windows.GetConsoleMode(h, &mode) == nil {
			_ = windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
		}
	}
}
