package catalog

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/birdtag/birdtag-go/internal/errors"
	"github.com/birdtag/birdtag-go/internal/tags"
)

// recordEntity is the GORM model for the 'media_records' table. The tag
// multiset is stored as a JSON column.
type recordEntity struct {
	ObjectID     string `gorm:"primaryKey;size:512"`
	OwnerID      string `gorm:"primaryKey;size:128"`
	Kind         string `gorm:"size:16"`
	OriginalURL  string `gorm:"size:1024;index:idx_media_records_original_url"`
	ThumbnailURL string `gorm:"size:1024;index:idx_media_records_thumbnail_url"`
	Tags         datatypes.JSON
}

// TableName sets the table name used by GORM.
func (recordEntity) TableName() string {
	return "media_records"
}

func toEntity(record *MediaRecord) (recordEntity, error) {
	encoded, err := json.Marshal(record.Tags)
	if err != nil {
		return recordEntity{}, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("object_id", record.ObjectID).
			Component("catalog").
			Build()
	}
	return recordEntity{
		ObjectID:     record.ObjectID,
		OwnerID:      record.OwnerID,
		Kind:         string(record.Kind),
		OriginalURL:  record.OriginalURL,
		ThumbnailURL: record.ThumbnailURL,
		Tags:         datatypes.JSON(encoded),
	}, nil
}

func (e *recordEntity) toRecord() (MediaRecord, error) {
	tagMap := tags.TagMap{}
	if len(e.Tags) > 0 {
		if err := json.Unmarshal(e.Tags, &tagMap); err != nil {
			return MediaRecord{}, errors.New(err).
				Category(errors.CategoryDatabase).
				Context("object_id", e.ObjectID).
				Component("catalog").
				Build()
		}
	}
	return MediaRecord{
		ObjectID:     e.ObjectID,
		OwnerID:      e.OwnerID,
		Kind:         MediaKind(e.Kind),
		OriginalURL:  e.OriginalURL,
		ThumbnailURL: e.ThumbnailURL,
		Tags:         tagMap,
	}, nil
}
