package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/resource-reservation/internal/model"
	"github.com/iliyamo/resource-reservation/internal/repository"
)

// ResourceInput is the administrator-supplied part of a Resource.
type ResourceInput struct {
	ID          string
	Name        string
	Category    model.Category
	Capacity    int
	Description string
	Location    string
	Amenities   []string
	Status      model.ResourceStatus
}

// ListResources returns resources ordered by name, optionally filtered by
// category.  An empty category lists everything.
func (e *Engine) ListResources(ctx context.Context, category model.Category) ([]model.Resource, error) {
	if category != "" && !category.Valid() {
		return nil, invalid("category", "unknown category %q", category)
	}
	out, err := e.resources.ListResources(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return out, nil
}

// GetResource returns resource id or ErrResourceNotFound.
func (e *Engine) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	res, err := e.resources.GetResource(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("load resource: %w", err)
	}
	return res, nil
}

// CreateResource adds a resource to the directory.  A blank ID is replaced
// by a generated UUID and a blank status defaults to active.
func (e *Engine) CreateResource(ctx context.Context, who model.Identity, in ResourceInput) (*model.Resource, error) {
	if !who.IsApprover() {
		return nil, fmt.Errorf("%w: managing resources requires the admin role", ErrForbidden)
	}
	res := in.toResource()
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.Status == "" {
		res.Status = model.ResourceActive
	}
	if err := validateResource(res); err != nil {
		return nil, err
	}
	if err := e.resources.CreateResource(ctx, res); err != nil {
		if errors.Is(err, repository.ErrDuplicateResource) {
			return nil, invalid("id", "resource %s already exists", res.ID)
		}
		return nil, fmt.Errorf("create resource: %w", err)
	}
	e.logger.Infoj(log.JSON{"msg": "resource created", "resource_id": res.ID, "admin_id": who.UserID})
	return res, nil
}

// UpdateResource replaces the mutable fields of resource id.  Switching a
// resource away from active stops new bookings; existing ones are kept.
func (e *Engine) UpdateResource(ctx context.Context, who model.Identity, id string, in ResourceInput) (*model.Resource, error) {
	if !who.IsApprover() {
		return nil, fmt.Errorf("%w: managing resources requires the admin role", ErrForbidden)
	}
	cur, err := e.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	res := in.toResource()
	res.ID = cur.ID
	if res.Status == "" {
		res.Status = cur.Status
	}
	if err := validateResource(res); err != nil {
		return nil, err
	}
	if err := e.resources.UpdateResource(ctx, res); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("update resource: %w", err)
	}
	res.BookingCount = cur.BookingCount
	res.CreatedAt = cur.CreatedAt
	e.logger.Infoj(log.JSON{"msg": "resource updated", "resource_id": res.ID, "status": string(res.Status), "admin_id": who.UserID})
	return res, nil
}

// DeleteResource removes a resource no booking has ever referenced.
// Bookings are history and are never deleted, so a booked resource must
// be set inactive instead; that refusal is a ValidationError.
func (e *Engine) DeleteResource(ctx context.Context, who model.Identity, id string) error {
	if !who.IsApprover() {
		return fmt.Errorf("%w: managing resources requires the admin role", ErrForbidden)
	}
	if err := e.resources.DeleteResource(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrResourceNotFound
		case errors.Is(err, repository.ErrResourceInUse):
			return invalid("id", "resource %s has bookings; set its status to inactive instead", id)
		}
		return fmt.Errorf("delete resource: %w", err)
	}
	e.logger.Infoj(log.JSON{"msg": "resource deleted", "resource_id": id, "admin_id": who.UserID})
	return nil
}

func (in ResourceInput) toResource() *model.Resource {
	amenities := make([]string, 0, len(in.Amenities))
	for _, a := range in.Amenities {
		if a = strings.TrimSpace(a); a != "" {
			amenities = append(amenities, a)
		}
	}
	return &model.Resource{
		ID:          strings.TrimSpace(in.ID),
		Name:        strings.TrimSpace(in.Name),
		Category:    model.Category(strings.ToLower(strings.TrimSpace(string(in.Category)))),
		Capacity:    in.Capacity,
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Amenities:   amenities,
		Status:      model.ResourceStatus(strings.ToLower(strings.TrimSpace(string(in.Status)))),
	}
}

func validateResource(r *model.Resource) error {
	switch {
	case len(r.ID) > 64:
		return invalid("id", "must be at most 64 characters")
	case r.Name == "":
		return invalid("name", "is required")
	case !r.Category.Valid():
		return invalid("category", "unknown category %q", r.Category)
	case r.Capacity <= 0:
		return invalid("capacity", "must be positive")
	case !r.Status.Valid():
		return invalid("status", "unknown status %q", r.Status)
	}
	return nil
}
