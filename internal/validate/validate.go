// Package validate checks free-text and event-code inputs before they are
// sent to the events service.
package validate

import (
	"fmt"
	"regexp"
)

const (
	sentenceChars  = "-_.(),@:'`?#!"
	eventCodeChars = "-_."
)

var (
	sentencePattern  = regexp.MustCompile("^[\\w\\s\\-_.(),@:'`?#!]{1,255}$")
	eventCodePattern = regexp.MustCompile(`^[\w\-_.]{1,255}$`)
)

// Sentence accepts labels and descriptions of 1 to 255 characters.
func Sentence(input string) error {
	if sentencePattern.MatchString(input) {
		return nil
	}
	return fmt.Errorf("the input: %s is invalid, please use < 255 characters string with a combination of alphanumeric characters, spaces and special characters in '%s'", input, sentenceChars)
}

// OptionalSentence is Sentence but accepts the empty string.
func OptionalSentence(input string) error {
	if input == "" {
		return nil
	}
	return Sentence(input)
}

func EventCode(input string) error {
	if eventCodePattern.MatchString(input) {
		return nil
	}
	return fmt.Errorf("the input: %s is invalid, please use at least one and < 255 characters string with a combination of alphanumeric characters and special characters in '%s'", input, eventCodeChars)
}
