package id

import (
	"strconv"
	"sync/atomic"
	"time"

	fid "github.com/amterp/flexid"
)

var (
	generator *fid.Generator
	sequence  atomic.Uint64
)

func init() {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	config := fid.NewConfig().
		WithEpoch(epoch).
		WithTickSize(time.Millisecond).
		WithNumRandomChars(4)

	generator = fid.MustNewGenerator(config)
}

// Generate returns a new unique ID.
func Generate() string {
	return generator.MustGenerate()
}

// Instance returns an identifier for one physical pull of the card with the
// given provider ID. Two pulls of the same print never share an instance ID,
// even within the same millisecond: the flexid carries time and randomness and
// the process-wide sequence breaks any remaining tie.
func Instance(originalID string) string {
	if originalID == "" {
		originalID = "anon-" + Generate()
	}
	return originalID + "-" + Generate() + "-" + strconv.FormatUint(sequence.Add(1), 36)
}
