// Package testutil provides the shared database fixtures used across
// package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/courtsidehq/courtside/internal/store"
)

// NewTestStore creates a temporary SQLite database with migrations applied.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	return st
}

// SeedFacility inserts a facility owned by ownerID.
func SeedFacility(t *testing.T, st *store.Store, ownerID int64) *store.Facility {
	t.Helper()

	facility := &store.Facility{
		OwnerID:  ownerID,
		Name:     "Test Facility",
		Timezone: "UTC",
	}
	if err := st.CreateFacility(context.Background(), facility); err != nil {
		t.Fatalf("seed facility: %v", err)
	}
	return facility
}

// SeedCourt inserts an active court priced at priceCents per hour.
func SeedCourt(t *testing.T, st *store.Store, facilityID, priceCents int64) *store.Court {
	t.Helper()

	court := &store.Court{
		FacilityID:        facilityID,
		Name:              "Court 1",
		PricePerHourCents: priceCents,
		IsActive:          true,
	}
	if err := st.CreateCourt(context.Background(), court); err != nil {
		t.Fatalf("seed court: %v", err)
	}
	return court
}

// SeedHours sets the same opening hours for every day of the week.
func SeedHours(t *testing.T, st *store.Store, facilityID int64, opensAt, closesAt string) {
	t.Helper()

	for day := 0; day < 7; day++ {
		if err := st.UpsertOperatingHours(context.Background(), facilityID, day, opensAt, closesAt); err != nil {
			t.Fatalf("seed hours for day %d: %v", day, err)
		}
	}
}

// SeedCoupon inserts an active coupon valid for the next 24 hours.
func SeedCoupon(t *testing.T, st *store.Store, c *store.Coupon) *store.Coupon {
	t.Helper()

	if c.ValidFrom.IsZero() {
		c.ValidFrom = time.Now().Add(-time.Hour)
	}
	if c.ValidUntil.IsZero() {
		c.ValidUntil = time.Now().Add(24 * time.Hour)
	}
	c.IsActive = true
	if err := st.CreateCoupon(context.Background(), c); err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
	return c
}

// FutureDate returns a date string the given number of days from today.
func FutureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format(store.DateLayout)
}
