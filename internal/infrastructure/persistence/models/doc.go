// Package models contains the GORM persistence models. They are kept apart
// from the domain types, which carry no ORM tags; each model converts to and
// from its domain type.
package models
