package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/udhos/difflib"

	"github.com/udhos/clichat/store"
)

func splitBufLines(b []byte) []string {
	list := strings.Split(string(b), "\n")
	last := len(list) - 1
	if last < 0 {
		return list
	}
	if list[last] == "" {
		return list[:last]
	}
	return list
}

// writeDiff prints the lines that differ between two captures, prefixed
// with -N (only in from) or +N (only in to), N being the line number in
// the respective file. It returns how many lines differ.
func writeDiff(w io.Writer, from, to string) (int, error) {
	bufFrom, errFrom := store.FileRead(from)
	if errFrom != nil {
		return 0, fmt.Errorf("writeDiff: %v", errFrom)
	}
	bufTo, errTo := store.FileRead(to)
	if errTo != nil {
		return 0, fmt.Errorf("writeDiff: %v", errTo)
	}

	fmt.Fprintf(w, "--- %s\n+++ %s\n", from, to)

	var f, t, changes int

	for _, d := range difflib.Diff(splitBufLines(bufFrom), splitBufLines(bufTo)) {
		switch d.Delta {
		case difflib.LeftOnly:
			f++
			changes++
			fmt.Fprintf(w, "-%d: %s\n", f, d.Payload)
		case difflib.RightOnly:
			t++
			changes++
			fmt.Fprintf(w, "+%d: %s\n", t, d.Payload)
		case difflib.Common:
			f++
			t++
		}
	}

	return changes, nil
}
