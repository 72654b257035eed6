package logcapture

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func subscribe(s *Stream) *[]Line {
	var got []Line
	s.Subscribe(func(l Line) { got = append(got, l) })
	return &got
}

func texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestCaptureDeliversLinesInOrder(t *testing.T) {
	s := NewStream()
	got := subscribe(s)

	c := s.Begin()
	const n = 250
	for i := 0; i < n; i++ {
		fmt.Fprintf(c, "line %d\n", i)
	}
	c.End()

	require.Equal(t, n, s.Pump())
	require.Len(t, *got, n)
	for i, l := range *got {
		require.Equal(t, fmt.Sprintf("line %d", i), l.Text)
		require.Equal(t, uint64(i+1), l.Seq)
	}
}

func TestCaptureSplitsChunks(t *testing.T) {
	s := NewStream()
	got := subscribe(s)

	c := s.Begin()
	c.Write([]byte("alpha\nbe"))
	c.Write([]byte("ta\r\ngam"))
	s.Pump()
	require.Equal(t, []string{"alpha", "beta"}, texts(*got))

	c.Write([]byte("ma"))
	c.End()
	s.Pump()
	require.Equal(t, []string{"alpha", "beta", "gamma"}, texts(*got))
}

func TestCaptureDropsStragglersAfterEnd(t *testing.T) {
	s := NewStream()
	got := subscribe(s)

	c := s.Begin()
	fmt.Fprintln(c, "during run")
	c.End()

	n, err := fmt.Fprintln(c, "straggler")
	require.NoError(t, err)
	require.Equal(t, len("straggler\n"), n)

	s.Pump()
	require.Equal(t, []string{"during run"}, texts(*got))
	require.False(t, s.Active())
	require.True(t, c.Ended())
}

func TestCaptureWithoutSubscriberDrops(t *testing.T) {
	s := NewStream()
	c := s.Begin()
	fmt.Fprintln(c, "nobody listening")
	require.Zero(t, s.Pending())

	got := subscribe(s)
	fmt.Fprintln(c, "heard")
	c.End()
	s.Pump()
	require.Equal(t, []string{"heard"}, texts(*got))
}

func TestBeginEndsPreviousCapture(t *testing.T) {
	s := NewStream()
	got := subscribe(s)

	first := s.Begin()
	first.Write([]byte("unterminated"))
	second := s.Begin()
	require.True(t, first.Ended())

	fmt.Fprintln(first, "late")
	fmt.Fprintln(second, "fresh")
	second.End()
	s.Pump()
	require.Equal(t, []string{"unterminated", "fresh"}, texts(*got))
}

func TestOverflowReportsDroppedLines(t *testing.T) {
	s := NewStream(WithCapacity(3))
	got := subscribe(s)

	c := s.Begin()
	for i := 0; i < 5; i++ {
		fmt.Fprintf(c, "%d\n", i)
	}
	c.End()

	require.Equal(t, 4, s.Pump())
	require.Equal(t, []string{"0", "1", "2", "... 2 log lines dropped"}, texts(*got))
}

func TestCaptureConcurrentProducer(t *testing.T) {
	s := NewStream()
	got := subscribe(s)
	c := s.Begin()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			fmt.Fprintf(c, "%04d\n", i)
		}
		c.End()
	}()

	for {
		s.Pump()
		if c.Ended() && s.Pending() == 0 {
			break
		}
	}
	wg.Wait()
	s.Pump()

	require.Len(t, *got, 1000)
	require.True(t, strings.HasPrefix((*got)[999].Text, "0999"))
	for i := 1; i < len(*got); i++ {
		require.Less(t, (*got)[i-1].Text, (*got)[i].Text)
	}
}

func TestAnnounceFollowsPendingLines(t *testing.T) {
	s := NewStream()
	got := subscribe(s)

	c := s.Begin()
	fmt.Fprintln(c, "from solver")
	s.Announce("from ui")
	c.End()

	require.Equal(t, []string{"from solver", "from ui"}, texts(*got))
	require.Equal(t, uint64(2), (*got)[1].Seq)

	s.Subscribe(nil)
	s.Announce("nobody")
	require.Len(t, *got, 2)
}

func TestAnnounceKeepsSequenceOrderWithConcurrentWrites(t *testing.T) {
	s := NewStream()
	c := s.Begin()

	var got []Line
	wrote := false
	s.Subscribe(func(l Line) {
		got = append(got, l)
		if !wrote {
			// a solver line that lands while the loop is delivering
			wrote = true
			fmt.Fprintln(c, "late")
		}
	})

	fmt.Fprintln(c, "early")
	s.Announce("note")
	c.End()
	s.Pump()

	require.Equal(t, []string{"early", "note", "late"}, texts(got))
	for i := 1; i < len(got); i++ {
		require.Less(t, got[i-1].Seq, got[i].Seq)
	}
}

func TestAnnounceIsNotDroppedAtCapacity(t *testing.T) {
	s := NewStream(WithCapacity(1))
	got := subscribe(s)

	c := s.Begin()
	fmt.Fprintln(c, "a")
	fmt.Fprintln(c, "b")
	s.Announce("note")
	c.End()

	require.Equal(t, []string{"a", "note", "... 1 log lines dropped"}, texts(*got))
}
