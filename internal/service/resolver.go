package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rarefindshq/rarefinds-server/internal/db"
	"github.com/rarefindshq/rarefinds-server/internal/model"
	"gorm.io/gorm/clause"
)

// Resolver 把外部引用 (名字) 映射成本地行，不存在则创建
// 创建走 OnConflict DoNothing + 回读，配合 NOCASE 唯一索引，并发同步不会落出重复行
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// NormalizeName 自然主键统一先 trim，配合列上的 NOCASE 做大小写不敏感匹配
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// ResolveGenre 按名字拿 Genre，最多创建一次；命中已有行时不做任何更新
func (r *Resolver) ResolveGenre(name string) (*model.Genre, error) {
	name = NormalizeName(name)
	if name == "" {
		return nil, errors.New("empty genre name")
	}

	genre := model.Genre{Name: name}
	if err := db.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&genre).Error; err != nil {
		return nil, fmt.Errorf("create genre %q: %w", name, err)
	}
	if genre.ID != 0 {
		return &genre, nil
	}

	// 冲突说明行已存在，回读拿 ID
	var existing model.Genre
	if err := db.DB.Where("name = ?", name).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("lookup genre %q: %w", name, err)
	}
	return &existing, nil
}

// ResolvePerson 按名字拿 Person；avatar 只在创建时写入，已有行保持原样
func (r *Resolver) ResolvePerson(name, avatar string) (*model.Person, error) {
	name = NormalizeName(name)
	if name == "" {
		return nil, errors.New("empty person name")
	}

	person := model.Person{Name: name, Avatar: avatar}
	if err := db.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&person).Error; err != nil {
		return nil, fmt.Errorf("create person %q: %w", name, err)
	}
	if person.ID != 0 {
		return &person, nil
	}

	var existing model.Person
	if err := db.DB.Where("name = ?", name).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("lookup person %q: %w", name, err)
	}
	return &existing, nil
}
