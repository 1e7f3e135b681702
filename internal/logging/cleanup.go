package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/23f2003700/padosi-politics/internal/models"
	"gorm.io/gorm"
)

const DefaultRetentionDays = 30

// PruneSystemLogs deletes system_logs older than retentionDays before now.
func PruneSystemLogs(ctx context.Context, db *gorm.DB, now time.Time, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	cutoff := now.UTC().AddDate(0, 0, -retentionDays)
	result := db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("prune system logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
