package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yoockh/yootravel/internal/models"
)

func TestDailyBuckets(t *testing.T) {
	base := time.Date(2026, 5, 1, 23, 30, 0, 0, time.UTC)
	got := DailyBuckets([]time.Time{base.Add(time.Hour), base, base.Add(26 * time.Hour), base.Add(-time.Hour)})

	assert.Equal(t, []models.DailyCount{
		{Date: "2026-05-01", Count: 2},
		{Date: "2026-05-02", Count: 1},
		{Date: "2026-05-03", Count: 1},
	}, got)
	assert.Empty(t, DailyBuckets(nil))
}
