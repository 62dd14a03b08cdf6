// Package refcode generates the short human-friendly booking references
// printed on confirmation emails (e.g. "VG-8FK3J").
package refcode

import (
	"fmt"
	"strings"

	hashids "github.com/speps/go-hashids/v2"
)

const prefix = "VG-"

type Generator struct {
	h *hashids.HashID
}

func NewGenerator(salt string) (*Generator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 6
	data.Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no look-alike chars

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return &Generator{h: h}, nil
}

// FromCounter encodes a monotonically increasing counter (we feed it unix
// nanos at booking time) into a reference code.
func (g *Generator) FromCounter(n int64) (string, error) {
	code, err := g.h.EncodeInt64([]int64{n})
	if err != nil {
		return "", err
	}
	return prefix + code, nil
}

// Decode recovers the counter from a reference, tolerating a missing prefix.
func (g *Generator) Decode(reference string) (int64, error) {
	code := strings.TrimPrefix(reference, prefix)
	ns, err := g.h.DecodeInt64WithError(code)
	if err != nil {
		return 0, err
	}
	if len(ns) == 0 {
		return 0, fmt.Errorf("reference %q decodes to nothing", reference)
	}
	return ns[0], nil
}
