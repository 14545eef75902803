// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package digest computes BLAKE2b-256 file checksums.
package digest

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// Size is the digest length in bytes.
const Size = blake2b.Size256

// Sum holds a file checksum.
type Sum struct {
	Size   int64
	Digest [Size]byte
}

// Hex returns the lowercase hexadecimal digest.
func (s Sum) Hex() string {
	return hex.EncodeToString(s.Digest[:])
}

// Reader hashes r until EOF or until ctx ends.
func Reader(ctx context.Context, r io.Reader) (Sum, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return Sum{}, err
	}
	n, err := io.Copy(h, ctxReader{ctx: ctx, r: r})
	if err != nil {
		return Sum{}, err
	}
	var s Sum
	s.Size = n
	h.Sum(s.Digest[:0])
	return s, nil
}

// File hashes the file at path.
func File(ctx context.Context, path string) (Sum, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sum{}, err
	}
	defer f.Close()
	s, err := Reader(ctx, f)
	if err != nil {
		return Sum{}, fmt.Errorf("digest: %s: %w", path, err)
	}
	return s, nil
}

// ctxReader stops reading once ctx ends so large files honor cancellation.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
