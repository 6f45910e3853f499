package database_test

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acarli/itemstore/internal/database"
	"github.com/acarli/itemstore/internal/model"
)

func TestStormCreateItem(t *testing.T) {
	db, cleanup := setup(t)
	defer cleanup()

	a := &model.Item{ID: 1, Name: "alpha"}
	b := &model.Item{ID: 2, Name: "bravo"}

	require.NoError(t, db.CreateItem(a))
	require.NoError(t, db.CreateItem(b))
	assert.NotNil(t, a.CreatedAt)
	assert.NotNil(t, a.UpdatedAt)

	err := db.CreateItem(&model.Item{ID: 1, Name: "alpha again"})
	require.Error(t, err)
	assert.True(t, db.IsAlreadyExists(err))

	// The losing create must not have overwritten the stored record.
	stored, err := db.FindItem(1)
	require.NoError(t, err)
	assert.Equal(t, "alpha", stored.Name)
}

func TestStormCreateItemConcurrent(t *testing.T) {
	db, cleanup := setup(t)
	defer cleanup()

	// Racing creates with the same identity, exactly one may win.
	const workers = 8

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = db.CreateItem(&model.Item{ID: 7, Name: "contended"})
		}(i)
	}
	wg.Wait()

	var created, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case db.IsAlreadyExists(err):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflicted)

	item, err := db.FindItem(7)
	require.NoError(t, err)
	assert.Equal(t, "contended", item.Name)
}

func TestStormFindItem(t *testing.T) {
	db, cleanup := setup(t)
	defer cleanup()

	_, err := db.FindItem(1)
	require.Error(t, err)
	assert.True(t, db.IsNotFound(err))

	description := "round trip"
	require.NoError(t, db.CreateItem(&model.Item{ID: 1, Name: "alpha", Description: &description}))

	item, err := db.FindItem(1)
	require.NoError(t, err)
	assert.Equal(t, 1, item.ID)
	assert.Equal(t, "alpha", item.Name)
	require.NotNil(t, item.Description)
	assert.Equal(t, description, *item.Description)
}

func TestStormFindItems(t *testing.T) {
	db, cleanup := setup(t)
	defer cleanup()

	items, err := db.FindItems(0, 10)
	require.NoError(t, err)
	assert.Empty(t, items)

	for _, id := range []int{3, 1, 2} {
		require.NoError(t, db.CreateItem(&model.Item{ID: id, Name: "item"}))
	}

	items, err = db.FindItems(0, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i, item := range items {
		assert.Equal(t, i+1, item.ID)
	}

	items, err = db.FindItems(1, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].ID)

	items, err = db.FindItems(10, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStormUpdateItem(t *testing.T) {
	db, cleanup := setup(t)
	defer cleanup()

	err := db.UpdateItem(&model.Item{ID: 1, Name: "ghost"})
	require.Error(t, err)
	assert.True(t, db.IsNotFound(err))

	require.NoError(t, db.CreateItem(&model.Item{ID: 1, Name: "alpha"}))
	created, err := db.FindItem(1)
	require.NoError(t, err)

	description := "described"
	updated := &model.Item{ID: 1, Name: "renamed", Description: &description}
	require.NoError(t, db.UpdateItem(updated))

	item, err := db.FindItem(1)
	require.NoError(t, err)
	assert.Equal(t, "renamed", item.Name)
	require.NotNil(t, item.Description)
	assert.Equal(t, description, *item.Description)

	// Identity and creation date survive the update.
	assert.Equal(t, 1, item.ID)
	require.NotNil(t, item.CreatedAt)
	assert.WithinDuration(t, *created.CreatedAt, *item.CreatedAt, time.Second)
}

func TestStormDeleteItem(t *testing.T) {
	db, cleanup := setup(t)
	defer cleanup()

	err := db.DeleteItem(1)
	require.Error(t, err)
	assert.True(t, db.IsNotFound(err))

	require.NoError(t, db.CreateItem(&model.Item{ID: 1, Name: "alpha"}))
	require.NoError(t, db.DeleteItem(1))

	_, err = db.FindItem(1)
	require.Error(t, err)
	assert.True(t, db.IsNotFound(err))
}

func TestStormUsers(t *testing.T) {
	db, cleanup := setup(t)
	defer cleanup()

	_, err := db.FindUserByUsername("carlos")
	require.Error(t, err)
	assert.True(t, db.IsNotFound(err))

	user := &model.User{Username: "carlos", Password: "hashed"}
	require.NoError(t, db.Save(user))
	assert.NotEmpty(t, user.ID)
	assert.NotNil(t, user.CreatedAt)

	found, err := db.FindUserByUsername("carlos")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	err = db.Save(&model.User{Username: "carlos"})
	require.Error(t, err)
	assert.True(t, db.IsAlreadyExists(err))
}

func setup(t *testing.T) (database.Client, func()) {
	tmpfile, err := os.CreateTemp("", "itemstore.*.db")
	require.NoError(t, err)
	filename := tmpfile.Name()
	tmpfile.Close()

	db, err := database.StormOpen(filename)
	require.NoError(t, err)

	return db, func() {
		db.Close()
		os.RemoveAll(filename)
	}
}
