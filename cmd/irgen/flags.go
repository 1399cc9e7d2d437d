package main

import "fmt"

func errInvalidFlag(flag, value, expected string) error {
	return fmt.Errorf("invalid %s value %q (expected %s)", flag, value, expected)
}
