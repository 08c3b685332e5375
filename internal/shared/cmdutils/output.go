package cmdutils

import "fmt"

const logo = "❄️"

// PrintResponse writes an agent reply to stdout under the product banner.
func PrintResponse(text string) {
	if text == "" {
		return
	}

	fmt.Printf("\n%s snowwise\n%s\n\n", logo, text)
}

// PrintProgress writes an intermediate step line.
func PrintProgress(text string) {
	if text == "" {
		return
	}
	fmt.Printf("  ↳ %s\n", text)
}
