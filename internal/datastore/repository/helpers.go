package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// updateByID applies updates to one row and stamps updated_at.
// MySQL reports zero affected rows when the values are unchanged, so a zero
// count is confirmed against the table before reporting the sentinel.
func updateByID(ctx context.Context, db *gorm.DB, table string, id uint, updates map[string]any, sentinel error) error {
	stamped := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		stamped[k] = v
	}
	stamped["updated_at"] = time.Now()

	result := db.WithContext(ctx).Table(table).
		Where("id = ?", id).
		Updates(stamped)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Table(table).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return sentinel
	}
	return nil
}

// chunkIDs splits ids into batches of at most idBatchSize.
func chunkIDs(ids []uint) [][]uint {
	var chunks [][]uint
	for start := 0; start < len(ids); start += idBatchSize {
		end := min(start+idBatchSize, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
