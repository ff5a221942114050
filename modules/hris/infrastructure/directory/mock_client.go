package directory

import (
	"context"
	"sync"
	"time"

	"github.com/villagepulse/villagepulse/modules/hris/domain/directory"
)

// MockClient is the development and test implementation of the directory
// client. It serves a fixed record set from memory and can be told to fail,
// so orchestrator behavior on directory outages is testable without a
// network.
type MockClient struct {
	mu      sync.RWMutex
	records []directory.ExternalRecord
	err     error
}

func NewMockClient(records []directory.ExternalRecord) *MockClient {
	return &MockClient{records: records}
}

// SetRecords replaces the record set served by subsequent fetches.
func (c *MockClient) SetRecords(records []directory.ExternalRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = records
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (c *MockClient) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *MockClient) FetchAll(_ context.Context, statusFilter *directory.Status) ([]directory.ExternalRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	out := make([]directory.ExternalRecord, 0, len(c.records))
	for _, r := range c.records {
		if statusFilter != nil && r.Status != *statusFilter {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (c *MockClient) FetchSince(_ context.Context, since time.Time) ([]directory.ExternalRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	var out []directory.ExternalRecord
	for _, r := range c.records {
		if !r.UpdatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *MockClient) FetchOne(_ context.Context, externalID string) (*directory.ExternalRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	for _, r := range c.records {
		if r.ExternalID == externalID {
			record := r
			return &record, nil
		}
	}
	return nil, directory.ErrRecordNotFound
}

func (c *MockClient) TestConnection(_ context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// SeedRecords is the fixture set served when the mock driver is selected in
// configuration.
func SeedRecords() []directory.ExternalRecord {
	now := time.Now()
	return []directory.ExternalRecord{
		{
			ExternalID:    "EMP-1001",
			Email:         "amina.yusuf@example.org",
			DisplayName:   "Amina Yusuf",
			Department:    "Field Operations",
			VillageCode:   "V1",
			Role:          "staff",
			Status:        directory.StatusActive,
			EffectiveFrom: now.AddDate(-1, 0, 0),
			UpdatedAt:     now.AddDate(0, 0, -2),
		},
		{
			ExternalID:    "EMP-1002",
			Email:         "li.wei@example.org",
			DisplayName:   "Li Wei",
			Department:    "Community Health",
			VillageCode:   "V2",
			Role:          "coordinator",
			Status:        directory.StatusActive,
			EffectiveFrom: now.AddDate(0, -6, 0),
			UpdatedAt:     now.AddDate(0, 0, -1),
		},
		{
			ExternalID:    "EMP-1003",
			Email:         "sara.oduya@example.org",
			DisplayName:   "Sara Oduya",
			Department:    "Field Operations",
			Role:          "staff",
			Status:        directory.StatusInactive,
			EffectiveFrom: now.AddDate(-2, 0, 0),
			UpdatedAt:     now.AddDate(0, -1, 0),
		},
	}
}
