package service

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/acarli/itemstore/internal/database"
	"github.com/acarli/itemstore/internal/model"
	"github.com/acarli/itemstore/internal/serror"
)

type (
	// An ItemService owns the items lifecycle.
	ItemService interface {
		Create(params ItemParams) (*model.Item, error)
		List(skip, limit int) ([]*model.Item, error)
		Get(id int) (*model.Item, error)
		Update(id int, params ItemParams) (*model.Item, error)
		Delete(id int) error
	}

	// ItemParams are the item fields supplied by the client.
	ItemParams struct {
		ID          int     `json:"id"`
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}

	itemService struct {
		db database.Client
	}
)

// NewItem returns a new ItemService.
func NewItem(db database.Client) ItemService {
	return &itemService{
		db: db,
	}
}

// Validate checks the field constraints of the params.
func (p ItemParams) Validate() error {
	if p.ID <= 0 {
		return serror.NewWithTagCode(http.StatusBadRequest, "validation", "ID must be a positive integer.")
	}
	if n := utf8.RuneCountInString(p.Name); n < 3 || n > 50 {
		return serror.NewWithTagCode(http.StatusBadRequest, "validation", "Name must be between 3 and 50 characters.")
	}
	if strings.TrimSpace(p.Name) == "" {
		return serror.NewWithTagCode(http.StatusBadRequest, "validation", "Name cannot be empty or whitespace.")
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > 200 {
		return serror.NewWithTagCode(http.StatusBadRequest, "validation", "Description must be at most 200 characters.")
	}
	return nil
}

// Create persists a new item. The database enforces id uniqueness.
func (s *itemService) Create(params ItemParams) (*model.Item, error) {
	item := &model.Item{
		ID:          params.ID,
		Name:        params.Name,
		Description: params.Description,
	}

	if err := s.db.CreateItem(item); err != nil {
		if s.db.IsAlreadyExists(err) {
			return nil, serror.NewWithTagCode(http.StatusBadRequest, "conflict", "Item already exists.")
		}
		return nil, errors.Wrap(err, "could not persist item")
	}
	return item, nil
}

// List returns items ordered by ascending id.
func (s *itemService) List(skip, limit int) ([]*model.Item, error) {
	items, err := s.db.FindItems(skip, limit)
	return items, errors.Wrap(err, "could not list items")
}

// Get returns the item for the given id.
func (s *itemService) Get(id int) (*model.Item, error) {
	item, err := s.db.FindItem(id)
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, errItemNotFound()
		}
		return nil, errors.Wrap(err, "could not get item")
	}
	return item, nil
}

// Update replaces the name and description of the item identified by the path.
// The payload id must match the path id, identity is immutable.
func (s *itemService) Update(id int, params ItemParams) (*model.Item, error) {
	if params.ID != id {
		return nil, serror.NewWithTagCode(http.StatusBadRequest, "identity-mismatch", "Item ID does not match the requested resource.")
	}

	item := &model.Item{
		ID:          id,
		Name:        params.Name,
		Description: params.Description,
	}

	if err := s.db.UpdateItem(item); err != nil {
		if s.db.IsNotFound(err) {
			return nil, errItemNotFound()
		}
		return nil, errors.Wrap(err, "could not update item")
	}
	return item, nil
}

// Delete removes the item for the given id.
func (s *itemService) Delete(id int) error {
	if err := s.db.DeleteItem(id); err != nil {
		if s.db.IsNotFound(err) {
			return errItemNotFound()
		}
		return errors.Wrap(err, "could not delete item")
	}
	return nil
}

func errItemNotFound() error {
	return serror.NewWithTagCode(http.StatusNotFound, "not-found", "Item not found.")
}
