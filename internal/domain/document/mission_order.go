package document

import (
	"strings"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MissionOrder (ordre de mission) authorises an employee trip
type MissionOrder struct {
	shared.AuditedAggregateRoot
	Number         string
	FullName       string
	Function       string
	Address        string
	Destination    string
	Purpose        string
	TransportMeans string
	Registration   string
	Registration2  string
	DepartureDate  time.Time
	ReturnDate     *time.Time
	AccompaniedBy  string
}

// MissionDetails are the fields of a mission order
type MissionDetails struct {
	FullName       string
	Function       string
	Address        string
	Destination    string
	Purpose        string
	TransportMeans string
	Registration   string
	Registration2  string
	DepartureDate  time.Time
	ReturnDate     *time.Time
	AccompaniedBy  string
}

// NewMissionOrder validates and creates an unnumbered mission order
func NewMissionOrder(d MissionDetails, createdBy *uuid.UUID) (*MissionOrder, error) {
	if strings.TrimSpace(d.FullName) == "" {
		return nil, shared.NewValidationError("Full name is required")
	}
	if strings.TrimSpace(d.Destination) == "" {
		return nil, shared.NewValidationError("Destination is required")
	}
	if d.DepartureDate.IsZero() {
		return nil, shared.NewValidationError("Departure date is required")
	}
	if d.ReturnDate != nil && d.ReturnDate.Before(d.DepartureDate) {
		return nil, shared.NewValidationError("Return date cannot be before departure date")
	}
	return &MissionOrder{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		FullName:             strings.TrimSpace(d.FullName),
		Function:             d.Function,
		Address:              d.Address,
		Destination:          strings.TrimSpace(d.Destination),
		Purpose:              d.Purpose,
		TransportMeans:       d.TransportMeans,
		Registration:         d.Registration,
		Registration2:        d.Registration2,
		DepartureDate:        d.DepartureDate,
		ReturnDate:           d.ReturnDate,
		AccompaniedBy:        d.AccompaniedBy,
	}, nil
}

// Year returns the numbering year of the order
func (o *MissionOrder) Year() int {
	return yearOf(o.DepartureDate)
}

// AssignNumber sets the document number once
func (o *MissionOrder) AssignNumber(seq int64) error {
	if o.Number != "" {
		return shared.NewDomainError(shared.CodeInvalidState, "Mission order is already numbered")
	}
	o.Number = MissionOrderNumber(o.Year(), seq)
	return nil
}
