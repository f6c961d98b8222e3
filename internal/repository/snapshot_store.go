package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/noah-isme/rentflow-api/internal/models"
)

// ErrStaleSnapshot is returned by Save when the snapshot was read at a version
// that is no longer current.
var ErrStaleSnapshot = errors.New("snapshot version is stale")

const metaBucket = "_meta"

// snapshotBuckets lists the entity collections persisted as one payload each.
var snapshotBuckets = []string{"locations", "houses", "tenants", "payments", "leaseRequests", "vacateRequests", "handovers"}

func encodeBuckets(s *models.Snapshot) (map[string][]byte, error) {
	targets := map[string]interface{}{
		"locations":      s.Locations,
		"houses":         s.Houses,
		"tenants":        s.Tenants,
		"payments":       s.Payments,
		"leaseRequests":  s.LeaseRequests,
		"vacateRequests": s.VacateRequests,
		"handovers":      s.Handovers,
	}
	out := make(map[string][]byte, len(targets))
	for _, bucket := range snapshotBuckets {
		data, err := json.Marshal(targets[bucket])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", bucket, err)
		}
		out[bucket] = data
	}
	return out, nil
}

func decodeBucket(s *models.Snapshot, bucket string, payload []byte) error {
	var target interface{}
	switch bucket {
	case "locations":
		target = &s.Locations
	case "houses":
		target = &s.Houses
	case "tenants":
		target = &s.Tenants
	case "payments":
		target = &s.Payments
	case "leaseRequests":
		target = &s.LeaseRequests
	case "vacateRequests":
		target = &s.VacateRequests
	case "handovers":
		target = &s.Handovers
	default:
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}
