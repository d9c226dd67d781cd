package ledger

import (
	"errors"
	"strings"

	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/models"

	"gorm.io/gorm"
)

// CategoryResolver finds or creates the categories named by a
// colon-delimited path ("Parent:Child"), case-insensitively, scoped by
// parent. Resolutions are memoized by the literal input string for the
// life of the resolver, i.e. one import batch.
type CategoryResolver struct {
	db    *gorm.DB
	cache map[string]uint
}

// NewCategoryResolver returns a resolver bound to db with an empty memo.
func NewCategoryResolver(db *gorm.DB) *CategoryResolver {
	return &CategoryResolver{db: db, cache: make(map[string]uint)}
}

// Resolve returns the id of the deepest segment of path, creating any
// missing level. A newly created category's type is inferred from the
// sign of amount at creation time. Empty paths resolve to nil.
func (r *CategoryResolver) Resolve(path string, amount float64) (*uint, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	if id, ok := r.cache[path]; ok {
		return &id, nil
	}

	var parent *uint
	for _, seg := range strings.Split(path, ":") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}

		q := r.db.Where("LOWER(name) = LOWER(?)", seg)
		if parent == nil {
			q = q.Where("parent_id IS NULL")
		} else {
			q = q.Where("parent_id = ?", *parent)
		}

		var cat models.Category
		err := q.First(&cat).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cat = models.Category{
				Name:     seg,
				Type:     categoryTypeFor(amount),
				ParentID: parent,
			}
			if err := r.db.Create(&cat).Error; err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}

		id := cat.ID
		parent = &id
	}

	if parent == nil {
		return nil, nil
	}
	r.cache[path] = *parent
	return parent, nil
}

func categoryTypeFor(amount float64) string {
	switch {
	case amount < 0:
		return models.CategoryExpense
	case amount > 0:
		return models.CategoryIncome
	default:
		return models.CategoryNeutral
	}
}
