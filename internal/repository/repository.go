// Package repository implements persistence for resources, requests and
// notifications. The Postgres implementation uses pgx directly (no ORM); an
// in-memory implementation backs tests and ephemeral deployments.
package repository

import (
	"context"
	"errors"

	"github.com/sahayata/resource-engine/internal/model"
)

// ErrNotFound is returned when a record does not exist within the caller's
// city scope. Cross-city access is deliberately indistinguishable from a
// missing record.
var ErrNotFound = errors.New("not found")

// ErrInsufficientStock is returned when a reservation would drive a
// resource's available count below zero.
var ErrInsufficientStock = errors.New("not enough resources available")

// ErrInvalidTransition is returned when a request is not in the prior state
// the attempted transition requires.
var ErrInvalidTransition = errors.New("request is not in a state that allows this action")

// ErrCityNotAssigned is returned when the acting account has no usable city.
var ErrCityNotAssigned = errors.New("account has no city assigned")

// ResourceStore persists city-scoped resource records. Every method that
// takes a city treats it as a mandatory scope filter: ids outside that city
// resolve to ErrNotFound.
type ResourceStore interface {
	Create(ctx context.Context, res *model.Resource) error
	GetByID(ctx context.Context, city, id string) (*model.Resource, error)
	// Update replaces all mutable fields under a row lock so an explicit
	// total/available reset cannot clobber a concurrent reservation.
	Update(ctx context.Context, city string, res *model.Resource) (*model.Resource, error)
	Delete(ctx context.Context, city, id string) error
	// AddStock atomically increments both total and available by amount.
	AddStock(ctx context.Context, city, id string, amount int) (*model.Resource, error)
	// Reserve atomically debits available by quantity, failing with
	// ErrInsufficientStock when fewer units remain. Two concurrent reserves
	// can never both succeed against the same units.
	Reserve(ctx context.Context, city, id string, quantity int) (*model.Resource, error)
	List(ctx context.Context, city string, filter model.ResourceFilter) ([]model.Resource, error)
}

// RequestStore persists citizen requests and drives their status
// transitions. Approve folds the inventory debit and the status write into
// one atomic unit.
type RequestStore interface {
	Create(ctx context.Context, req *model.Request) error
	GetByID(ctx context.Context, city, id string) (*model.Request, error)
	// ListByCity returns the city's requests, newest first. An empty status
	// means all statuses.
	ListByCity(ctx context.Context, city string, status model.RequestStatus) ([]model.Request, error)
	ListByUser(ctx context.Context, userID string) ([]model.Request, error)
	// Approve moves pending → approved and debits the referenced resource's
	// available by the request quantity in the same atomic unit. On
	// ErrInsufficientStock nothing is written and the request stays pending.
	Approve(ctx context.Context, city, id, adminID string) (*model.Request, *model.Resource, error)
	// Reject moves pending → rejected. No inventory effect.
	Reject(ctx context.Context, city, id, adminID string) (*model.Request, error)
	// Fulfill moves approved → fulfilled. No inventory effect: the units
	// were already debited at approval.
	Fulfill(ctx context.Context, city, id, adminID string) (*model.Request, error)
}

// NotificationStore is a fire-and-forget sink for decision notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
}
