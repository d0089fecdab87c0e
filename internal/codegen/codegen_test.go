package codegen_test

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"callsync/internal/codegen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Shape(t *testing.T) {
	gen := codegen.New()

	for i := 0; i < 500; i++ {
		code, err := gen.Generate("")
		require.NoError(t, err)
		assert.Len(t, code, codegen.Length)
		assert.Regexp(t, `^[A-HJ-NP-Z2-9]{6}$`, code)
		assert.True(t, codegen.IsPermanent(code))
	}
}

func TestGenerate_Prefix(t *testing.T) {
	code, err := codegen.New().Generate(codegen.TempPrefix)
	require.NoError(t, err)

	assert.Len(t, code, 7)
	assert.True(t, codegen.IsTemp(code))
	assert.False(t, codegen.IsPermanent(code))
}

func TestGenerate_AlphabetExcludesLookAlikes(t *testing.T) {
	assert.Len(t, codegen.Alphabet, 32)
	for _, c := range "IO01" {
		assert.NotContains(t, codegen.Alphabet, string(c))
	}
}

func TestGenerate_DeterministicSource(t *testing.T) {
	gen := codegen.NewWithSource(bytes.NewReader([]byte{0, 1, 31, 32, 33, 255}))

	code, err := gen.Generate("")
	require.NoError(t, err)
	// 32 and 33 wrap to A and B, 255 -> index 31 -> '9'.
	assert.Equal(t, "AB9AB9", code)
}

func TestGenerate_SourceFailure(t *testing.T) {
	gen := codegen.NewWithSource(bytes.NewReader([]byte{1, 2}))

	_, err := gen.Generate("")
	assert.Error(t, err)
}

func TestAssign_RetriesUntilFree(t *testing.T) {
	taken := map[string]bool{}
	attempts := 0

	code, err := codegen.Assign(codegen.New(), "", 10, func(c string) error {
		attempts++
		if attempts < 3 {
			taken[c] = true
			return codegen.ErrCollision
		}
		if taken[c] {
			return codegen.ErrCollision
		}
		return nil
	})

	require.NoError(t, err)
	assert.False(t, taken[code])
	assert.GreaterOrEqual(t, attempts, 3)
}

func TestAssign_AlwaysCollideTerminates(t *testing.T) {
	calls := 0
	_, err := codegen.Assign(codegen.New(), "", 7, func(string) error {
		calls++
		return codegen.ErrCollision
	})

	assert.ErrorIs(t, err, codegen.ErrExhausted)
	assert.Equal(t, 7, calls)
}

func TestAssign_OtherErrorStops(t *testing.T) {
	boom := errors.New("connection reset")
	calls := 0
	_, err := codegen.Assign(codegen.New(), "", 5, func(string) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

// uniqueStore accepts a code only once, atomically, like a unique index.
type uniqueStore struct {
	mu    sync.Mutex
	codes map[string]int
}

func (s *uniqueStore) insert(owner int) func(string) error {
	return func(code string) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.codes[code]; ok {
			return codegen.ErrCollision
		}
		s.codes[code] = owner
		return nil
	}
}

func TestAssign_ConcurrentWritersNeverShareCode(t *testing.T) {
	// A tiny source space forces real collisions between writers.
	small := &smallSpace{}
	store := &uniqueStore{codes: map[string]int{}}

	const writers = 40
	results := make([]string, writers)
	errs := make([]error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = codegen.Assign(small, "", 1000, store.insert(i))
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[results[i]], "duplicate code %s", results[i])
		seen[results[i]] = true
		assert.Equal(t, i, store.codes[results[i]])
	}
}

// smallSpace yields one of 64 codes so concurrent writers collide often.
type smallSpace struct {
	mu sync.Mutex
	n  int
}

func (s *smallSpace) Generate(prefix string) (string, error) {
	s.mu.Lock()
	s.n = (s.n*17 + 5) % 64
	n := s.n
	s.mu.Unlock()
	return prefix + "AAAA" + string(codegen.Alphabet[n/8]) + string(codegen.Alphabet[n%8]), nil
}
