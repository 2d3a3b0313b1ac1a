package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentRecord is one stored document. Seq preserves insertion order
// within a collection.
type DocumentRecord struct {
	Collection string `gorm:"primaryKey;size:64"`
	ID         string `gorm:"primaryKey;size:64"`
	Seq        int64  `gorm:"index;not null"`
	Data       datatypes.JSON
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (DocumentRecord) TableName() string { return "documents" }

// GormStore keeps documents as JSON rows in a relational database.
type GormStore struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewGormStore(db *gorm.DB, log *zap.Logger) *GormStore {
	return &GormStore{db: db, log: log.With(zap.String("store", "gorm"))}
}

// Migrate creates the documents table.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&DocumentRecord{})
}

func (s *GormStore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	var rec DocumentRecord
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, errors.Wrapf(err, "get %s/%s", collection, id)
	}
	doc, err := decodeRecord(rec)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{ID: rec.ID, Data: doc}, nil
}

func (s *GormStore) List(ctx context.Context, collection string, q Query) ([]Snapshot, error) {
	var recs []DocumentRecord
	if err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("seq ASC").
		Find(&recs).Error; err != nil {
		return nil, errors.Wrapf(err, "list %s", collection)
	}

	snaps := make([]Snapshot, 0, len(recs))
	for _, rec := range recs {
		doc, err := decodeRecord(rec)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, Snapshot{ID: rec.ID, Data: doc})
	}
	return applyQuery(snaps, q)
}

func (s *GormStore) Create(ctx context.Context, collection string, data interface{}) (string, error) {
	doc, err := ToDocument(data)
	if err != nil {
		return "", errors.Wrap(err, "encode document")
	}
	id := uuid.NewString()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.insert(tx, collection, id, doc)
	})
	if err != nil {
		return "", errors.Wrapf(err, "create %s", collection)
	}
	return id, nil
}

func (s *GormStore) Set(ctx context.Context, collection, id string, data interface{}, merge bool) error {
	doc, err := ToDocument(data)
	if err != nil {
		return errors.Wrap(err, "encode document")
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.lockedRecord(tx, collection, id)
		if errors.Is(err, ErrNotFound) {
			return s.insert(tx, collection, id, doc)
		}
		if err != nil {
			return err
		}
		if merge {
			existing, err := decodeRecord(rec)
			if err != nil {
				return err
			}
			mergeInto(existing, doc)
			doc = existing
		}
		return s.save(tx, rec, doc)
	})
	return errors.Wrapf(err, "set %s/%s", collection, id)
}

func (s *GormStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.lockedRecord(tx, collection, id)
		if err != nil {
			return err
		}
		doc, err := decodeRecord(rec)
		if err != nil {
			return err
		}
		if err := applyFields(doc, fields); err != nil {
			return err
		}
		return s.save(tx, rec, doc)
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return errors.Wrapf(err, "update %s/%s", collection, id)
}

func (s *GormStore) Delete(ctx context.Context, collection, id string) error {
	res := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&DocumentRecord{})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete %s/%s", collection, id)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) lockedRecord(tx *gorm.DB, collection, id string) (DocumentRecord, error) {
	q := tx.Where("collection = ? AND id = ?", collection, id)
	// sqlite has no row locks; its transactions already serialize writers.
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rec DocumentRecord
	err := q.First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DocumentRecord{}, ErrNotFound
	}
	return rec, err
}

func (s *GormStore) insert(tx *gorm.DB, collection, id string, doc Document) error {
	var maxSeq int64
	if err := tx.Model(&DocumentRecord{}).
		Where("collection = ?", collection).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error; err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	rec := DocumentRecord{Collection: collection, ID: id, Seq: maxSeq + 1, Data: datatypes.JSON(raw)}
	if err := tx.Create(&rec).Error; err != nil {
		return err
	}
	s.log.Debug("document created", zap.String("collection", collection), zap.String("id", id))
	return nil
}

func (s *GormStore) save(tx *gorm.DB, rec DocumentRecord, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return tx.Model(&DocumentRecord{}).
		Where("collection = ? AND id = ?", rec.Collection, rec.ID).
		Updates(map[string]interface{}{"data": datatypes.JSON(raw), "updated_at": time.Now().UTC()}).Error
}

func decodeRecord(rec DocumentRecord) (Document, error) {
	doc := Document{}
	if len(rec.Data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(rec.Data, &doc); err != nil {
		return nil, errors.Wrapf(err, "decode %s/%s", rec.Collection, rec.ID)
	}
	return doc, nil
}
