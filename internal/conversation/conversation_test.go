package conversation

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fixedClock() func() time.Time {
	t := time.Date(2025, time.March, 5, 14, 7, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestAppend_Timestamp(t *testing.T) {
	s := NewSession(WithClock(fixedClock()))

	in, err := s.Append("Who is the champion?", "Ada Park.")
	require.NoError(t, err)
	assert.Equal(t, "Who is the champion?", in.Question)
	assert.Equal(t, "Ada Park.", in.Answer)
	assert.Equal(t, "Mar 05, 2025 02:07 PM", in.Timestamp)
}

func TestHistory_InsertionOrder(t *testing.T) {
	s := NewSession()
	for i := 0; i < 3; i++ {
		_, err := s.Append(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
		require.NoError(t, err)
	}

	h := s.History()
	require.Len(t, h, 3)
	assert.Equal(t, "q0", h[0].Question)
	assert.Equal(t, "q2", h[2].Question)

	r := s.Recent()
	assert.Equal(t, "q2", r[0].Question)
	assert.Equal(t, "q0", r[2].Question)
	assert.Equal(t, "q0", s.History()[0].Question, "Recent must not reorder the log")
}

func TestHistory_ReturnsCopy(t *testing.T) {
	s := NewSession()
	_, err := s.Append("q", "a")
	require.NoError(t, err)

	h := s.History()
	h[0].Answer = "tampered"
	assert.Equal(t, "a", s.History()[0].Answer)
}

func TestHistory_EmptySession(t *testing.T) {
	s := NewSession()
	assert.Empty(t, s.History())
	assert.Empty(t, s.Recent())
	assert.Equal(t, 0, s.Len())
	assert.NotEmpty(t, s.ID)
}

func TestAppend_Concurrent(t *testing.T) {
	s := NewSession()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Append(fmt.Sprintf("q%d", i), "a")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	h := s.History()
	assert.Len(t, h, 50)
	seen := make(map[string]bool)
	for _, in := range h {
		assert.False(t, seen[in.Question], "duplicate %s", in.Question)
		seen[in.Question] = true
	}
}

func TestClose(t *testing.T) {
	s := NewSession()
	_, err := s.Append("q", "a")
	require.NoError(t, err)

	s.Close()
	assert.True(t, s.Closed())
	assert.Empty(t, s.History())

	_, err = s.Append("q2", "a2")
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestStore_Lifecycle(t *testing.T) {
	st := NewStore(WithClock(fixedClock()))

	a := st.Start()
	b := st.Start()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, st.Len())

	got, err := st.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	in, err := got.Append("q", "a")
	require.NoError(t, err)
	assert.Equal(t, "Mar 05, 2025 02:07 PM", in.Timestamp)

	assert.True(t, st.End(a.ID))
	assert.False(t, st.End(a.ID))
	assert.True(t, a.Closed())

	_, err = st.Get(a.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	st.EndAll()
	assert.Equal(t, 0, st.Len())
	assert.True(t, b.Closed())
}
