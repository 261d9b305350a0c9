package shared

import "time"

// AggregateRoot collects domain events until they are published
type AggregateRoot interface {
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot is embedded by Category, Vendor and Product.
// Version starts at 1 and grows with every Touch.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// NewBaseAggregateRoot creates a version 1 aggregate with no pending events
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// GetVersion returns the aggregate version
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// Touch records a state change
func (a *BaseAggregateRoot) Touch() {
	a.UpdatedAt = time.Now().UTC()
	a.Version++
}

// AddDomainEvent queues an event for publishing
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the pending events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops the pending events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}
