package database

import (
	"github.com/acarli/itemstore/internal/model"
)

type (
	// A Client can interacts with the database.
	Client interface {
		// Save inserts or updates the entry in database with the given model.
		Save(m model.Model) error
		// Delete deletes the entry in database with the given model.
		Delete(m model.Model) error
		// Close the database.
		Close() error
		// IsNotFound returns true if err is a not found error.
		IsNotFound(err error) bool
		// IsAlreadyExists returns true if err is a duplicate key error.
		IsAlreadyExists(err error) bool

		UserInteraction
		ItemInteraction
	}

	// An UserInteraction defines all the methods used to interact with a user record.
	UserInteraction interface {
		// FindUser returns the user for the given id (UUID).
		FindUser(id string) (*model.User, error)
		// FindUserByUsername returns the user for the given username.
		FindUserByUsername(username string) (*model.User, error)
	}

	// An ItemInteraction defines all the methods used to interact with item record(s).
	ItemInteraction interface {
		// CreateItem persists a new item.
		// It fails with a duplicate key error if the id is already taken.
		CreateItem(item *model.Item) error
		// FindItem returns the item for the given id.
		FindItem(id int) (*model.Item, error)
		// FindItems returns items ordered by ascending id, honoring skip and limit.
		// An empty store yields an empty slice.
		FindItems(skip, limit int) ([]*model.Item, error)
		// UpdateItem replaces the name and description of the stored item.
		// It fails with a not found error if the item is absent.
		UpdateItem(item *model.Item) error
		// DeleteItem deletes the item for the given id.
		DeleteItem(id int) error
	}
)
