// Package main provides the weeksnap command, which keeps seven rotating
// read-only btrfs snapshots of a volume, one per weekday.
package main

import (
	"context"
	"os"
)

func main() {
	if err := Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
