package config

// DB holds the database configuration settings.
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	File       string // database file for the sqlite engine
	GormEngine string // mysql, postgres or sqlite
}
