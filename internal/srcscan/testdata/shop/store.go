package shop

//grapht:qualifier Region default="eu-west-1"
//grapht:qualifier Port default=8080

// Store persists orders.
//
//grapht:default SQLStore
type Store interface {
	Save(o *Order) error
	Load(id string) (*Order, error)
}

// Cache is a Store that can drop entries.
//
//grapht:default MemCache
type Cache interface {
	Store
	Invalidate(id string)
}

type Order struct {
	ID    string
	Total int
}

// SQLStore keeps orders in the primary database.
type SQLStore struct {
	db *DB
}

//grapht:inject db @Named("primary")
func NewSQLStore(db *DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Save(o *Order) error { return nil }

func (s *SQLStore) Load(id string) (*Order, error) { return &Order{ID: id}, nil }

// MemCache wraps a SQLStore and inherits its methods.
type MemCache struct {
	*SQLStore
	entries map[string]*Order
}

func NewMemCache(backing *SQLStore) *MemCache {
	return &MemCache{SQLStore: backing, entries: make(map[string]*Order)}
}

func (c *MemCache) Invalidate(id string) { delete(c.entries, id) }
