package reconcile

import (
	"crypto/rand"
	"math/big"
)

const (
	CodeMin = 100
	CodeMax = 999
)

// Generator draws reconciliation codes. The source is swappable so tests can
// pin the draw.
type Generator interface {
	Generate() (int, error)
}

type generator struct{}

func NewGenerator() Generator {
	return &generator{}
}

// Generate returns a code in [100, 999]. Codes come from crypto/rand so a
// client cannot predict the payable total of another client's request.
func (g *generator) Generate() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(CodeMax-CodeMin+1))
	if err != nil {
		return 0, err
	}
	return CodeMin + int(n.Int64()), nil
}
