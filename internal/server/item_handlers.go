package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/acarli/itemstore/internal/database"
	"github.com/acarli/itemstore/internal/serror"
	"github.com/acarli/itemstore/internal/server/service"
)

// item contains all item handlers.
type item struct {
	db           database.Client
	listLimit    int
	listLimitMax int
}

///// Create
////
//

// Create persists a new item with a client-supplied id.
func (h *item) Create(c echo.Context) error {
	params, err := h.params(c)
	if err != nil {
		return err
	}

	item, err := service.NewItem(h.db).Create(params)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"id": item.ID, "by": username(c)}).Debug("item created")
	return c.JSON(http.StatusCreated, item)
}

///// List
////
//

// List returns items ordered by ascending id, honoring skip and limit queries.
func (h *item) List(c echo.Context) error {
	skip, err := queryInt(c, "skip", 0)
	if err != nil || skip < 0 {
		return c.JSON(http.StatusBadRequest, serror.New("Invalid skip parameter."))
	}

	limit, err := queryInt(c, "limit", h.listLimit)
	if err != nil || limit <= 0 {
		return c.JSON(http.StatusBadRequest, serror.New("Invalid limit parameter."))
	}
	if limit > h.listLimitMax {
		limit = h.listLimitMax
	}

	items, err := service.NewItem(h.db).List(skip, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, items)
}

///// Get
////
//

// Get returns the item for the given id.
func (h *item) Get(c echo.Context) error {
	id, err := h.id(c)
	if err != nil {
		return err
	}

	item, err := service.NewItem(h.db).Get(id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, item)
}

///// Update
////
//

// Update replaces the name and description of an item.
// The payload must carry the full item shape and its id must match the path.
func (h *item) Update(c echo.Context) error {
	id, err := h.id(c)
	if err != nil {
		return err
	}

	params, err := h.params(c)
	if err != nil {
		return err
	}

	item, err := service.NewItem(h.db).Update(id, params)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, item)
}

///// Delete
////
//

// Delete removes an item. Deletion is immediate and irreversible.
func (h *item) Delete(c echo.Context) error {
	id, err := h.id(c)
	if err != nil {
		return err
	}

	if err := service.NewItem(h.db).Delete(id); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"id": id, "by": username(c)}).Debug("item deleted")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Item deleted",
	})
}

// params binds and validates the item payload.
func (h *item) params(c echo.Context) (service.ItemParams, error) {
	var params service.ItemParams
	if err := c.Bind(&params); err != nil {
		return params, serror.NewWithTagCode(http.StatusBadRequest, "validation", "Could not get item params.")
	}

	return params, params.Validate()
}

// id extracts the item identity from the route path.
func (h *item) id(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, serror.NewWithTagCode(http.StatusBadRequest, "validation", "Invalid item ID.")
	}
	return id, nil
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func username(c echo.Context) string {
	if user := currentUser(c); user != nil {
		return user.Username
	}
	return "anonymous"
}
