package booking

import (
	"context"
	"fmt"

	"cursedticket/entity"
)

type EventCatalog interface {
	FindByID(ctx context.Context, category entity.Category, eventID string) (entity.Event, error)
}

// Locate finds an event by id. With a category hint only that category is
// asked. Without one, categories are probed in entity.Categories order and
// the first match wins, even if a later category holds the same id.
func Locate(ctx context.Context, catalog EventCatalog, eventID string, hint entity.Category) (entity.Event, error) {
	categories := entity.Categories
	if hint != "" {
		categories = []entity.Category{hint}
	}

	for _, category := range categories {
		event, err := catalog.FindByID(ctx, category, eventID)
		if err == nil {
			return event, nil
		}
		if !IsNotFound(err) {
			return entity.Event{}, fmt.Errorf("finding %s %s: %w", category, eventID, err)
		}
	}

	return entity.Event{}, ErrEventNotFound
}
