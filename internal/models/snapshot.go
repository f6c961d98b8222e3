package models

import (
	"fmt"
	"strings"
)

// Snapshot is the full set of entity collections exchanged with the store.
// Collections keep insertion order. Version is owned by the store and used to
// reject writes based on a stale read.
type Snapshot struct {
	Version        int64           `json:"version"`
	Locations      []Location      `json:"locations"`
	Houses         []House         `json:"houses"`
	Tenants        []Tenant        `json:"tenants"`
	Payments       []Payment       `json:"payments"`
	LeaseRequests  []LeaseRequest  `json:"leaseRequests"`
	VacateRequests []VacateRequest `json:"vacateRequests"`
	Handovers      []CashHandover  `json:"handovers"`
}

// NewSnapshot returns an empty snapshot with non-nil collections.
func NewSnapshot() *Snapshot {
	s := &Snapshot{}
	s.Normalize()
	return s
}

// Normalize replaces nil collections with empty ones so they encode as [] rather than null.
func (s *Snapshot) Normalize() {
	if s.Locations == nil {
		s.Locations = []Location{}
	}
	if s.Houses == nil {
		s.Houses = []House{}
	}
	if s.Tenants == nil {
		s.Tenants = []Tenant{}
	}
	if s.Payments == nil {
		s.Payments = []Payment{}
	}
	if s.LeaseRequests == nil {
		s.LeaseRequests = []LeaseRequest{}
	}
	if s.VacateRequests == nil {
		s.VacateRequests = []VacateRequest{}
	}
	if s.Handovers == nil {
		s.Handovers = []CashHandover{}
	}
}

// Clone copies every collection. Pointer fields inside entities are shared;
// entities are updated by assigning fresh pointers, never through them.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return NewSnapshot()
	}
	return &Snapshot{
		Version:        s.Version,
		Locations:      append([]Location{}, s.Locations...),
		Houses:         append([]House{}, s.Houses...),
		Tenants:        append([]Tenant{}, s.Tenants...),
		Payments:       append([]Payment{}, s.Payments...),
		LeaseRequests:  append([]LeaseRequest{}, s.LeaseRequests...),
		VacateRequests: append([]VacateRequest{}, s.VacateRequests...),
		Handovers:      append([]CashHandover{}, s.Handovers...),
	}
}

// LocationIndex returns the slice index of the location or -1.
func (s *Snapshot) LocationIndex(id string) int {
	for i := range s.Locations {
		if s.Locations[i].ID == id {
			return i
		}
	}
	return -1
}

// HouseIndex returns the slice index of the house or -1.
func (s *Snapshot) HouseIndex(id string) int {
	for i := range s.Houses {
		if s.Houses[i].ID == id {
			return i
		}
	}
	return -1
}

// TenantIndex returns the slice index of the tenant or -1.
func (s *Snapshot) TenantIndex(id string) int {
	for i := range s.Tenants {
		if s.Tenants[i].ID == id {
			return i
		}
	}
	return -1
}

// LeaseRequestIndex returns the slice index of the lease request or -1.
func (s *Snapshot) LeaseRequestIndex(id string) int {
	for i := range s.LeaseRequests {
		if s.LeaseRequests[i].ID == id {
			return i
		}
	}
	return -1
}

// VacateRequestIndex returns the slice index of the vacate request or -1.
func (s *Snapshot) VacateRequestIndex(id string) int {
	for i := range s.VacateRequests {
		if s.VacateRequests[i].ID == id {
			return i
		}
	}
	return -1
}

// HasPendingRequestFor reports whether a pending lease or vacate request targets the house.
func (s *Snapshot) HasPendingRequestFor(houseID string) bool {
	for _, r := range s.LeaseRequests {
		if r.HouseID == houseID && r.Status == RequestStatusPending {
			return true
		}
	}
	for _, r := range s.VacateRequests {
		if r.HouseID == houseID && r.Status == RequestStatusPending {
			return true
		}
	}
	return false
}

// CountHousesAt returns how many houses reference the location.
func (s *Snapshot) CountHousesAt(locationID string) int {
	n := 0
	for _, h := range s.Houses {
		if h.LocationID == locationID {
			n++
		}
	}
	return n
}

// InvariantError lists every violated cross-entity rule.
type InvariantError struct {
	Violations []string
}

func (e *InvariantError) Error() string {
	return "snapshot invariants violated: " + strings.Join(e.Violations, "; ")
}

// CheckInvariants verifies occupancy, referential and identity rules. It returns
// an *InvariantError describing every violation, or nil.
func (s *Snapshot) CheckInvariants() error {
	var violations []string
	add := func(format string, args ...interface{}) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	locations := make(map[string]struct{}, len(s.Locations))
	for _, l := range s.Locations {
		if _, dup := locations[l.ID]; dup {
			add("duplicate location id %s", l.ID)
		}
		locations[l.ID] = struct{}{}
	}

	activeByHouse := make(map[string][]string)
	tenants := make(map[string]struct{}, len(s.Tenants))
	for _, t := range s.Tenants {
		if _, dup := tenants[t.ID]; dup {
			add("duplicate tenant id %s", t.ID)
		}
		tenants[t.ID] = struct{}{}
		if t.HouseID != "" {
			activeByHouse[t.HouseID] = append(activeByHouse[t.HouseID], t.ID)
		}
	}

	houses := make(map[string]struct{}, len(s.Houses))
	for _, h := range s.Houses {
		if _, dup := houses[h.ID]; dup {
			add("duplicate house id %s", h.ID)
		}
		houses[h.ID] = struct{}{}
		if _, ok := locations[h.LocationID]; !ok {
			add("house %s references missing location %s", h.ID, h.LocationID)
		}
		active := activeByHouse[h.ID]
		switch h.Status {
		case HouseStatusOccupied:
			if len(active) != 1 {
				add("house %s is occupied with %d active tenants", h.ID, len(active))
			} else if h.TenantID != active[0] {
				add("house %s links tenant %q but active tenant is %s", h.ID, h.TenantID, active[0])
			}
		case HouseStatusVacant:
			if len(active) != 0 {
				add("house %s is vacant with %d active tenants", h.ID, len(active))
			}
			if h.TenantID != "" {
				add("house %s is vacant but links tenant %s", h.ID, h.TenantID)
			}
		default:
			add("house %s has unknown status %q", h.ID, h.Status)
		}
	}
	for houseID := range activeByHouse {
		if _, ok := houses[houseID]; !ok {
			add("tenant references missing house %s", houseID)
		}
	}

	payments := make(map[string]struct{}, len(s.Payments))
	for _, p := range s.Payments {
		if _, dup := payments[p.ID]; dup {
			add("duplicate payment id %s", p.ID)
		}
		payments[p.ID] = struct{}{}
		if _, ok := houses[p.HouseID]; !ok {
			add("payment %s references missing house %s", p.ID, p.HouseID)
		}
		if _, ok := tenants[p.TenantID]; !ok {
			add("payment %s references missing tenant %s", p.ID, p.TenantID)
		}
	}

	if len(violations) > 0 {
		return &InvariantError{Violations: violations}
	}
	return nil
}
