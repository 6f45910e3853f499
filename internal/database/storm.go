package database

import (
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/codec/msgpack"
	"github.com/asdine/storm/v3/q"
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/acarli/itemstore/internal/model"
)

type strm struct {
	db *storm.DB
}

// StormCodec is the format used to store data in the database.
var StormCodec = storm.Codec(msgpack.Codec)

// StormInit initializes Storm database.
func StormInit(database string) error {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return errors.Wrap(err, "could not get database connection")
	}
	defer db.Close()

	if err := db.Init(&model.User{}); err != nil {
		return errors.Wrap(err, "could not init user index")
	}

	err = db.Init(&model.Item{})
	return errors.Wrap(err, "could not init item index")
}

// StormOpen returns a new Storm database connection.
func StormOpen(database string) (Client, error) {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return nil, errors.Wrap(err, "could not get database connection")
	}

	return &strm{
		db: db,
	}, nil
}

// Save inserts or updates the entry in database with the given model.
func (c *strm) Save(m model.Model) error {
	t := time.Now().UTC()
	m.SetUpdatedAt(t)

	if m.GetID() == "" {
		m.SetID(uuid.Must(uuid.NewV4()).String())
		m.SetCreatedAt(t)
	}

	return errors.Wrap(c.db.Save(m), "could not save the model")
}

// Delete deletes the entry in database with the given model.
func (c *strm) Delete(m model.Model) error {
	return errors.Wrap(c.db.DeleteStruct(m), "could not delete the model")
}

// Close the database.
func (c *strm) Close() error {
	return c.db.Close()
}

// IsNotFound returns true if err is a not found error.
func (c *strm) IsNotFound(err error) bool {
	return errors.Cause(err) == storm.ErrNotFound
}

// IsAlreadyExists returns true if err is a duplicate key error.
func (c *strm) IsAlreadyExists(err error) bool {
	return errors.Cause(err) == storm.ErrAlreadyExists
}

// FindUser returns the user for the given id (UUID).
func (c *strm) FindUser(id string) (*model.User, error) {
	var user model.User
	if err := c.db.One("ID", id, &user); err != nil {
		return nil, errors.Wrap(err, "find user by id")
	}
	return &user, nil
}

// FindUserByUsername returns the user for the given username.
func (c *strm) FindUserByUsername(username string) (*model.User, error) {
	var user model.User
	if err := c.db.One("Username", username, &user); err != nil {
		return nil, errors.Wrap(err, "find user by username")
	}
	return &user, nil
}

// CreateItem persists a new item.
// The existence check and the insert run in a single write transaction so
// concurrent creates with the same id cannot both succeed.
func (c *strm) CreateItem(item *model.Item) error {
	tx, err := c.db.Begin(true)
	if err != nil {
		return errors.Wrap(err, "could not open transaction")
	}
	defer tx.Rollback()

	var existing model.Item
	switch err = tx.One("ID", item.ID, &existing); err {
	case storm.ErrNotFound:
	case nil:
		return storm.ErrAlreadyExists
	default:
		return errors.Wrap(err, "could not check item existence")
	}

	t := time.Now().UTC()
	item.CreatedAt = &t
	item.UpdatedAt = &t

	if err = tx.Save(item); err != nil {
		return errors.Wrap(err, "could not save item")
	}
	return errors.Wrap(tx.Commit(), "could not commit item creation")
}

// FindItem returns the item for the given id.
func (c *strm) FindItem(id int) (*model.Item, error) {
	var item model.Item
	if err := c.db.One("ID", id, &item); err != nil {
		return nil, errors.Wrap(err, "could not find item")
	}
	return &item, nil
}

// FindItems returns items ordered by ascending id, honoring skip and limit.
func (c *strm) FindItems(skip, limit int) ([]*model.Item, error) {
	items := make([]*model.Item, 0)
	err := c.db.Select(q.True()).OrderBy("ID").Skip(skip).Limit(limit).Find(&items)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find items")
	}
	return items, nil
}

// UpdateItem replaces the name and description of the stored item.
func (c *strm) UpdateItem(item *model.Item) error {
	tx, err := c.db.Begin(true)
	if err != nil {
		return errors.Wrap(err, "could not open transaction")
	}
	defer tx.Rollback()

	var existing model.Item
	if err = tx.One("ID", item.ID, &existing); err != nil {
		return errors.Wrap(err, "could not find item")
	}

	t := time.Now().UTC()
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = &t

	if err = tx.Save(item); err != nil {
		return errors.Wrap(err, "could not save item")
	}
	return errors.Wrap(tx.Commit(), "could not commit item update")
}

// DeleteItem deletes the item for the given id.
func (c *strm) DeleteItem(id int) error {
	err := c.db.Select(q.Eq("ID", id)).Delete(new(model.Item))
	return errors.Wrap(err, "could not delete item")
}
