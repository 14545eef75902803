// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package report writes iterq-sum results.
package report

import (
	"bufio"
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// Entry is one hashed file.
type Entry struct {
	Path   string `json:"path" msgpack:"path"`
	Size   int64  `json:"size" msgpack:"size"`
	Digest string `json:"blake2b_256" msgpack:"blake2b_256"`
}

// Sort orders entries by path.
func Sort(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Compare(a.Path, b.Path)
	})
}

// Write encodes entries to w in the given format: "txt", "json" or "msgpack".
//
// txt prints one "digest  path" line per entry, the layout b2sum -l 256
// produces and checks.
func Write(w io.Writer, format string, entries []Entry) error {
	switch format {
	case "txt":
		bw := bufio.NewWriter(w)
		for _, e := range entries {
			if _, err := fmt.Fprintf(bw, "%s  %s\n", e.Digest, e.Path); err != nil {
				return err
			}
		}
		return bw.Flush()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []Entry{}
		}
		return enc.Encode(entries)
	case "msgpack":
		return msgpack.NewEncoder(w).Encode(entries)
	default:
		return fmt.Errorf("report: unknown format %q", format)
	}
}
