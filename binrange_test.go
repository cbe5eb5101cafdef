package binrange

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/binrange/model"
	"github.com/hupe1980/binrange/testutil"
)

func TestStore(t *testing.T) {
	t.Run("InsertAndFind", func(t *testing.T) {
		store := New()

		r, err := model.NewCardRange(4000020000000000, 4000020009999999, "https://example.com/3ds")
		require.NoError(t, err)
		require.NoError(t, store.Insert(r))

		match, err := store.FindByPAN(4000020005000000)
		require.NoError(t, err)
		assert.Equal(t, r, match)
	})

	t.Run("InsertRejectsInvalidRange", func(t *testing.T) {
		store := New()

		err := store.Insert(model.CardRange{StartRange: 200, EndRange: 100})
		var ir *model.ErrInvalidRange
		require.ErrorAs(t, err, &ir)
		assert.Equal(t, int64(200), ir.Start)
		assert.Equal(t, int64(100), ir.End)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("NarrowRangeWins", func(t *testing.T) {
		store := New()

		wide, err := model.NewCardRange(4000020000000000, 4000020009999999, "wide")
		require.NoError(t, err)
		narrow, err := model.NewCardRange(4000020002000000, 4000020002009999, "narrow")
		require.NoError(t, err)
		require.NoError(t, store.InsertBatch([]model.CardRange{wide, narrow}))

		match, err := store.FindByPAN(4000020002000500)
		require.NoError(t, err)
		assert.Equal(t, "narrow", match.ThreeDSMethodURL)
	})

	t.Run("MissReturnsErrNotFound", func(t *testing.T) {
		store := New()

		_, err := store.FindByPAN(9999999999999999)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("NegativePAN", func(t *testing.T) {
		store := New()

		_, err := store.FindByPAN(-1)
		var np *ErrNegativePAN
		require.ErrorAs(t, err, &np)
		assert.Equal(t, int64(-1), np.PAN)
		assert.True(t, IsValidationError(err))
	})

	t.Run("Reset", func(t *testing.T) {
		store := New()

		r, err := model.NewCardRange(100, 200, "r")
		require.NoError(t, err)
		require.NoError(t, store.Insert(r))

		store.Reset()

		assert.Equal(t, 0, store.Len())
		_, err = store.FindByPAN(150)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStoreInsertBatch(t *testing.T) {
	t.Run("NilSlice", func(t *testing.T) {
		store := New()
		require.ErrorIs(t, store.InsertBatch(nil), ErrNilRanges)
	})

	t.Run("AllOrNothing", func(t *testing.T) {
		store := New()

		good, err := model.NewCardRange(100, 200, "good")
		require.NoError(t, err)
		bad := model.CardRange{StartRange: 500, EndRange: 400}

		err = store.InsertBatch([]model.CardRange{good, bad})
		var ir *model.ErrInvalidRange
		require.ErrorAs(t, err, &ir)

		// The valid record must not have been stored either.
		assert.Equal(t, 0, store.Len())
		_, err = store.FindByPAN(150)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DoesNotMutateCallerOrder", func(t *testing.T) {
		store := New(WithShuffleSeed(42))

		msg, err := testutil.GeneratePResMessage(testutil.NewRNG(1), 100)
		require.NoError(t, err)

		before := make([]model.CardRange, len(msg.CardRangeData))
		copy(before, msg.CardRangeData)

		require.NoError(t, store.InsertBatch(msg.CardRangeData))
		assert.Equal(t, before, msg.CardRangeData)
	})

	t.Run("SortedFeedIsLookupCorrect", func(t *testing.T) {
		store := New(WithShuffleSeed(7))

		msg, err := testutil.GeneratePResMessage(testutil.NewRNG(2), 5000)
		require.NoError(t, err)
		require.NoError(t, store.InsertBatch(msg.CardRangeData))
		require.Equal(t, 5000, store.Len())

		for _, r := range []int{0, 1, 2499, 4998, 4999} {
			want := msg.CardRangeData[r]
			probe := want.StartRange + want.Width()/2

			match, err := store.FindByPAN(probe)
			require.NoError(t, err)
			assert.Equal(t, want.StartRange, match.StartRange)
			assert.Equal(t, want.EndRange, match.EndRange)
		}
	})
}

func TestStorePResMessage(t *testing.T) {
	t.Run("NilMessage", func(t *testing.T) {
		store := New()
		require.ErrorIs(t, store.StorePResMessage(nil), ErrNilMessage)
	})

	t.Run("NilCardRangeData", func(t *testing.T) {
		store := New()
		err := store.StorePResMessage(&model.PResMessage{})
		var nd *model.ErrNilCardRangeData
		require.ErrorAs(t, err, &nd)
		assert.True(t, IsValidationError(err))
	})

	t.Run("StoresAllRanges", func(t *testing.T) {
		store := New()

		msg, err := testutil.GeneratePResMessage(testutil.NewRNG(3), 250)
		require.NoError(t, err)
		require.NoError(t, store.StorePResMessage(msg))
		assert.Equal(t, 250, store.Len())
	})
}

func TestStoreMetrics(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	store := New(WithMetricsCollector(metrics))

	r, err := model.NewCardRange(100, 200, "r")
	require.NoError(t, err)
	require.NoError(t, store.Insert(r))
	require.NoError(t, store.InsertBatch([]model.CardRange{r, r}))

	_, err = store.FindByPAN(150)
	require.NoError(t, err)
	_, err = store.FindByPAN(999)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.FindByPAN(-5)
	require.Error(t, err)

	store.Reset()

	assert.Equal(t, int64(1), metrics.InsertCount.Load())
	assert.Equal(t, int64(1), metrics.BatchInsertCount.Load())
	assert.Equal(t, int64(2), metrics.BatchInsertItems.Load())
	assert.Equal(t, int64(3), metrics.LookupCount.Load())
	assert.Equal(t, int64(1), metrics.LookupMisses.Load())
	assert.Equal(t, int64(1), metrics.LookupErrors.Load())
	assert.Equal(t, int64(1), metrics.ResetCount.Load())
}

// TestStoreConcurrentReadWrite drives 150 concurrent lookup workers
// against a pre-populated store while 50 writers each batch-insert 100
// fresh ranges. Everything must complete without corruption, and the
// pre-existing keys must still resolve afterwards.
func TestStoreConcurrentReadWrite(t *testing.T) {
	store := New()

	base, err := testutil.GeneratePResMessage(testutil.NewRNG(4), 10_000)
	require.NoError(t, err)
	require.NoError(t, store.InsertBatch(base.CardRangeData))

	// Writers insert above the generated region so they never overlap
	// the ranges the readers assert on.
	writerBase := base.CardRangeData[len(base.CardRangeData)-1].EndRange + 1

	var start sync.WaitGroup
	start.Add(1)

	var g errgroup.Group

	for w := 0; w < 50; w++ {
		w := w
		g.Go(func() error {
			start.Wait()
			rs := make([]model.CardRange, 100)
			for i := range rs {
				lo := writerBase + int64(w)*1_000_000 + int64(i)*10_000
				r, err := model.NewCardRange(lo, lo+9_999, "writer")
				if err != nil {
					return err
				}
				rs[i] = r
			}
			return store.InsertBatch(rs)
		})
	}

	for l := 0; l < 150; l++ {
		l := l
		g.Go(func() error {
			start.Wait()
			for i := l % 100; i < len(base.CardRangeData); i += 100 {
				want := base.CardRangeData[i]
				match, err := store.FindByPAN(want.StartRange)
				if err != nil {
					return err
				}
				if !match.Contains(want.StartRange) {
					t.Errorf("lookup %d: match %v does not contain pan", i, match)
				}
			}
			return nil
		})
	}

	start.Done()
	require.NoError(t, g.Wait())

	assert.Equal(t, 10_000+50*100, store.Len())

	// Pre-existing keys still resolve after all writers joined.
	for _, i := range []int{0, 5000, 9999} {
		want := base.CardRangeData[i]
		match, err := store.FindByPAN(want.StartRange + want.Width()/2)
		require.NoError(t, err)
		assert.True(t, match.Contains(want.StartRange+want.Width()/2))
	}
}
