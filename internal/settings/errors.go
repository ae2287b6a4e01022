package settings

import (
	"fmt"
	"strings"
)

type LoadError struct {
	path string
	base error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("Unable to load configuration from %s: %v", e.path, e.base)
}

func (e LoadError) Unwrap() error {
	return e.base
}

type DecodeError struct {
	path string
	base error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("Unable to decode file at %s from yaml: %v", e.path, e.base)
}

func (e DecodeError) Unwrap() error {
	return e.base
}

type ValidationError struct {
	problems []string
}

func (e ValidationError) Error() string {
	return "Invalid configuration: " + strings.Join(e.problems, "; ")
}
