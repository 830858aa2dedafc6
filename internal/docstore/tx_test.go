package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/expense-tracker/internal/errs"
	"github.com/mmynk/expense-tracker/internal/storage"
)

func TestRunInTxCommitsOnce(t *testing.T) {
	ctx := context.Background()
	s, backend := openMem(t)

	var expenseID string
	err := s.RunInTx(ctx, func(q Querier) error {
		exp, err := q.Create(ctx, "groupExpenses", doc(t, map[string]any{"totalAmount": 10}))
		if err != nil {
			return err
		}
		expenseID = exp.ID()

		// Reads inside the transaction see its own writes.
		seen, err := q.FindByID(ctx, "groupExpenses", expenseID)
		if err != nil {
			return err
		}
		require.NotNil(t, seen)

		for i := 0; i < 3; i++ {
			if _, err := q.Create(ctx, "splits", doc(t, map[string]any{"groupExpenseId": expenseID})); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, backend.saves)
	assert.Equal(t, 1, s.Count("groupExpenses"))
	assert.Equal(t, 3, s.Count("splits"))
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s, backend := openMem(t)

	_, err := s.Create(ctx, "groups", doc(t, map[string]any{"name": "Trip"}))
	require.NoError(t, err)
	savesBefore := backend.saves

	boom := errors.New("split creation failed")
	err = s.RunInTx(ctx, func(q Querier) error {
		if _, err := q.Create(ctx, "groupExpenses", doc(t, map[string]any{"totalAmount": 10})); err != nil {
			return err
		}
		if _, err := q.Create(ctx, "splits", doc(t, map[string]any{"shareAmount": 5})); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, savesBefore, backend.saves)
	assert.Equal(t, 0, s.Count("groupExpenses"))
	assert.Equal(t, 0, s.Count("splits"))
	assert.Equal(t, 1, s.Count("groups"))
}

func TestRunInTxPersistFailureLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	s, backend := openMem(t)
	backend.setSaveErr(errors.New("disk full"))

	err := s.RunInTx(ctx, func(q Querier) error {
		_, err := q.Create(ctx, "splits", doc(t, map[string]any{"shareAmount": 5}))
		return err
	})
	assert.True(t, errors.Is(err, errs.ErrStorage))
	assert.Equal(t, 0, s.Count("splits"))
}

func TestRunInTxWithoutWritesDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	s, backend := openMem(t)

	err := s.RunInTx(ctx, func(q Querier) error {
		_, err := q.Filter(ctx, "splits", nil)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 0, backend.saves)
}

func TestTxUpdateDeleteAndNesting(t *testing.T) {
	ctx := context.Background()
	s, _ := openMem(t)

	a, err := s.Create(ctx, "splits", doc(t, map[string]any{"isSettled": false}))
	require.NoError(t, err)
	b, err := s.Create(ctx, "splits", doc(t, map[string]any{"isSettled": false}))
	require.NoError(t, err)

	err = s.RunInTx(ctx, func(q Querier) error {
		patch := storage.NewDocument()
		if err := patch.Set("isSettled", true); err != nil {
			return err
		}
		updated, err := q.Update(ctx, "splits", a.ID(), patch)
		if err != nil {
			return err
		}
		require.NotNil(t, updated)

		missing, err := q.Update(ctx, "splits", "nope", patch)
		require.NoError(t, err)
		require.Nil(t, missing)

		return q.RunInTx(ctx, func(inner Querier) error {
			found, err := inner.Delete(ctx, "splits", b.ID())
			require.True(t, found)
			return err
		})
	})
	require.NoError(t, err)

	got, err := FindAs[map[string]any](ctx, s, "splits", a.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, true, (*got)["isSettled"])
	assert.Equal(t, 1, s.Count("splits"))
}

func TestTxIsClosedAfterRunInTx(t *testing.T) {
	ctx := context.Background()
	s, _ := openMem(t)

	var leaked Querier
	require.NoError(t, s.RunInTx(ctx, func(q Querier) error {
		leaked = q
		return nil
	}))

	_, err := leaked.Create(ctx, "splits", doc(t, map[string]any{}))
	assert.ErrorIs(t, err, ErrTxClosed)
}

func TestTypedHelpers(t *testing.T) {
	ctx := context.Background()
	s, _ := openMem(t)

	type group struct {
		ID      string   `json:"_id,omitempty"`
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}

	created, err := CreateAs[group](ctx, s, "groups", group{Name: "Trip", Members: []string{"u1"}})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	one, err := FindOneAs(ctx, s, "groups", func(g group) bool { return g.Name == "Trip" })
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, created.ID, one.ID)

	none, err := FindOneAs(ctx, s, "groups", func(g group) bool { return g.Name == "Flat" })
	require.NoError(t, err)
	assert.Nil(t, none)

	updated, err := UpdateAs[group](ctx, s, "groups", created.ID, map[string]any{"members": []string{"u1", "u2"}})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, []string{"u1", "u2"}, updated.Members)
	assert.Equal(t, "Trip", updated.Name)

	absent, err := UpdateAs[group](ctx, s, "groups", "nope", map[string]any{"name": "x"})
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestDecodeMismatchIsStorageError(t *testing.T) {
	ctx := context.Background()
	s, _ := openMem(t)
	_, err := s.Create(ctx, "groups", doc(t, map[string]any{"members": "not-a-list"}))
	require.NoError(t, err)

	type group struct {
		Members []string `json:"members"`
	}
	_, err = FilterAs[group](ctx, s, "groups", nil)
	assert.True(t, errors.Is(err, errs.ErrStorage))
}
