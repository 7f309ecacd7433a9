package codegenerator

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"onetime/internal/core/domain/token"
)

const DefaultLength = 32

// Generator produces bearer codes from a cryptographically secure random
// source. A failure to obtain entropy is fatal, the process cannot safely
// hand out guessable codes.
type Generator struct {
	chars  []rune
	length int
}

func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{
		chars:  []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"),
		length: length,
	}
}

func (g *Generator) GenerateCode() token.Code {
	b := make([]rune, g.length)
	max := big.NewInt(int64(len(g.chars)))
	for i := range b {
		ix, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("Could not read from the system random source: %v.", err))
		}
		b[i] = g.chars[ix.Int64()]
	}
	return token.Code(b)
}
