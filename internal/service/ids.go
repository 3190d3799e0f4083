package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// IDGenerator produces test identifiers for new results
type IDGenerator interface {
	NewTestID() string
}

// TimestampIDGenerator yields GSJT-<unix ms>. Two starts in the same
// millisecond share an ID; callers that need uniqueness use UUIDGenerator.
type TimestampIDGenerator struct {
	Now func() time.Time
}

func (g TimestampIDGenerator) NewTestID() string {
	now := g.Now
	if now == nil {
		now = time.Now
	}
	return fmt.Sprintf("GSJT-%d", now().UnixMilli())
}

// UUIDGenerator yields GSJT-<uuid v4>
type UUIDGenerator struct{}

func (UUIDGenerator) NewTestID() string {
	return "GSJT-" + uuid.New().String()
}

// NewIDGenerator picks a generator by TEST_ID_FORMAT
func NewIDGenerator(format string, now func() time.Time) (IDGenerator, error) {
	switch format {
	case "", "timestamp":
		return TimestampIDGenerator{Now: now}, nil
	case "uuid":
		return UUIDGenerator{}, nil
	default:
		return nil, errors.Errorf("unknown test id format %q", format)
	}
}
