package random

import (
	"crypto/rand"
	"math/big"
)

// Alphabet leaves out I, O, 0 and 1 so codes survive being read aloud.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Code returns a room or record code of the given length.
func Code(length int) string {
	return FromSet(Alphabet, length)
}

func FromSet(set string, length int) string {
	if length <= 0 || set == "" {
		return ""
	}
	max := big.NewInt(int64(len(set)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("random: " + err.Error())
		}
		out[i] = set[n.Int64()]
	}
	return string(out)
}
