// Package profiles stores named codec configurations in a SQL database and
// caches the codecs built from them.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/presbrey/b64/base64"
)

var (
	ErrNotFound = errors.New("profiles: profile not found")
	ErrExists   = errors.New("profiles: profile already exists")
	ErrInvalid  = errors.New("profiles: invalid profile")
)

// Profile is a named codec configuration
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Symbol62  string    `gorm:"size:1;not null" json:"symbol62"`
	Symbol63  string    `gorm:"size:1;not null" json:"symbol63"`
	Padded    bool      `json:"padded"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Codec builds the codec described by the profile.
func (p Profile) Codec() (*base64.Codec, error) {
	if len(p.Symbol62) != 1 || len(p.Symbol63) != 1 {
		return nil, fmt.Errorf("%w %q: symbols must be single characters", ErrInvalid, p.Name)
	}
	padding := base64.Unpadded
	if p.Padded {
		padding = base64.Padded
	}
	c, err := base64.New(p.Symbol62[0], p.Symbol63[0], padding)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalid, p.Name, err)
	}
	return c, nil
}

// Builtin returns the profiles seeded into every new store.
func Builtin() []Profile {
	return []Profile{
		{Name: "std", Symbol62: "+", Symbol63: "/", Padded: true},
		{Name: "url", Symbol62: "-", Symbol63: "_", Padded: true},
		{Name: "raw-std", Symbol62: "+", Symbol63: "/", Padded: false},
		{Name: "raw-url", Symbol62: "-", Symbol63: "_", Padded: false},
	}
}

// Store persists profiles and caches their codecs by name
type Store struct {
	db *gorm.DB

	mu     sync.RWMutex
	codecs map[string]*base64.Codec
	// gen is bumped by every Delete; a codec built from a read taken under
	// an older generation is not cached.
	gen uint64
}

// Open opens a store on the given dialector, migrates the schema and seeds
// the builtin profiles that are missing.
func Open(dialector gorm.Dialector, opts ...gorm.Option) (*Store, error) {
	if len(opts) == 0 {
		opts = []gorm.Option{&gorm.Config{}}
	}
	db, err := gorm.Open(dialector, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile store: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm.DB.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Profile{}); err != nil {
		return nil, fmt.Errorf("failed to migrate profile store: %w", err)
	}

	s := &Store{db: db, codecs: make(map[string]*base64.Codec)}
	for _, p := range Builtin() {
		p := p
		if err := db.Where(Profile{Name: p.Name}).FirstOrCreate(&p).Error; err != nil {
			return nil, fmt.Errorf("failed to seed profile %q: %w", p.Name, err)
		}
	}
	return s, nil
}

// DB returns the underlying database handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Create validates and stores a new profile
func (s *Store) Create(ctx context.Context, p Profile) (*Profile, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	codec, err := p.Codec()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	p.ID = 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Profile{}).Where("name = ?", p.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %q", ErrExists, p.Name)
		}
		return tx.Create(&p).Error
	})
	if err != nil {
		return nil, err
	}

	s.cache(p.Name, codec, gen)
	return &p, nil
}

// Get returns the profile with the given name
func (s *Store) Get(ctx context.Context, name string) (*Profile, error) {
	var p Profile
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all profiles ordered by name
func (s *Store) List(ctx context.Context) ([]Profile, error) {
	var list []Profile
	if err := s.db.WithContext(ctx).Find(&list).Error; err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// Delete removes the profile with the given name
func (s *Store) Delete(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Where("name = ?", name).Delete(&Profile{})
	if res.Error != nil {
		return res.Error
	}

	s.mu.Lock()
	delete(s.codecs, name)
	s.gen++
	s.mu.Unlock()

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

// Codec returns the codec for the named profile, building it on first use
func (s *Store) Codec(ctx context.Context, name string) (*base64.Codec, error) {
	s.mu.RLock()
	c, ok := s.codecs[name]
	gen := s.gen
	s.mu.RUnlock()
	if ok {
		return c, nil
	}

	p, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	c, err = p.Codec()
	if err != nil {
		return nil, err
	}

	s.cache(name, c, gen)
	return c, nil
}

// cache stores c unless a Delete ran since gen was read.
func (s *Store) cache(name string, c *base64.Codec, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.codecs[name] = c
	}
}

// Cached reports how many codecs are currently cached
func (s *Store) Cached() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.codecs)
}
