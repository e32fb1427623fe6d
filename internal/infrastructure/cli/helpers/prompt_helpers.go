package helpers

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadLine prints "promptText: " and returns the trimmed answer. End of input
// after a partial line still returns that line.
func ReadLine(out io.Writer, reader *bufio.Reader, promptText string) (string, error) {
	fmt.Fprintf(out, "%s: ", promptText)
	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptForYesNo prompts the user for a yes/no question
// Returns true for yes, false for no, or the default value if no input
func PromptForYesNo(out io.Writer, reader *bufio.Reader, promptText string, defaultValue bool) bool {
	label := buildYesNoLabel(defaultValue)
	line, err := ReadLine(out, reader, fmt.Sprintf("%s [%s]", promptText, label))
	if err != nil || line == "" {
		return defaultValue
	}
	return isAffirmativeResponse(strings.ToLower(line))
}

// buildYesNoLabel constructs the appropriate y/N or Y/n label based on the default
func buildYesNoLabel(defaultIsYes bool) string {
	if defaultIsYes {
		return "Y/n"
	}
	return "y/N"
}

// isAffirmativeResponse checks if a response is affirmative (yes)
func isAffirmativeResponse(response string) bool {
	return response == "y" || response == "yes"
}
