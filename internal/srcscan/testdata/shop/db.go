package shop

// DB is a database handle.
//
//grapht:provider DBProvider
type DB struct {
	dsn string
}

// DBProvider opens the database for the configured region.
type DBProvider struct {
	Region string `grapht:"qualifier=@Region"`
}

func (p *DBProvider) Provide() (*DB, error) {
	return &DB{dsn: "postgres://" + p.Region}, nil
}
