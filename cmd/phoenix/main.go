package main

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/sppas/phoenix/internal/cleanup"
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

func execute(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	err := cmd.Execute()
	if cleanupErr := cleanup.RunAll(); cleanupErr != nil {
		fmt.Fprintln(os.Stderr, cleanupErr)
		if err == nil {
			err = cleanupErr
		}
	}
	return exitCode(err)
}

var errorCode = regexp.MustCompile(`:ERROR (\d{1,3}):`)

// exitCode is 0 without error, the nnn of an ":ERROR nnn:" message, and
// 255 for any other error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if m := errorCode.FindStringSubmatch(err.Error()); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil && n <= 255 {
			return n
		}
	}
	return 255
}
