package constants

import (
	"net/http"
	"time"
)

// Environment and collections
const (
	// EnvPrefix selects the process environment variables kept by the config reader.
	EnvPrefix = "SCRAPPER_"

	ConfigVarsCollection       = "config_vars"
	RequestTemplatesCollection = "request_templates"
)

// Environment variable names
const (
	EnvStoreDriver       = "SCRAPPER_STORE_DRIVER"
	EnvMongoURI          = "SCRAPPER_MONGO_URI"
	EnvMongoHost         = "SCRAPPER_MONGO_HOST"
	EnvMongoPort         = "SCRAPPER_MONGO_PORT"
	EnvMongoUsername     = "SCRAPPER_MONGO_CONFIGDB_USERNAME"
	EnvMongoPassword     = "SCRAPPER_MONGO_CONFIGDB_PASSWORD"
	EnvMongoConfigDBName = "SCRAPPER_MONGO_CONFIGDB_NAME"
	EnvSQLitePath        = "SCRAPPER_SQLITE_PATH"
	EnvPostgresDSN       = "SCRAPPER_POSTGRES_DSN"
	EnvTemplatesFile     = "SCRAPPER_TEMPLATES_FILE"

	// Keys expected in the config_vars collection
	TargetDBName     = "SCRAPPER_MONGO_TARGETDB_NAME"
	TargetDBUsername = "SCRAPPER_MONGO_TARGETDB_USERNAME"
	TargetDBPassword = "SCRAPPER_MONGO_TARGETDB_PASSWORD"
)

// Store drivers
const (
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverFile     = "file"
)

// Database Constants
const (
	DefaultMongoPort       = 27017
	DefaultPostgresPort    = 5432
	DefaultPostgresSSLMode = "disable"

	// Connection pool settings
	DefaultPostgresMaxConnections = 10
	DefaultPostgresMaxIdleConns   = 2
	DefaultSQLiteMaxConnections   = 1 // SQLite allows only one writer
	DefaultSQLiteMaxIdleConns     = 1

	DefaultSQLiteFileName = "rnpdno.db"

	DefaultConfigVarsTable       = "config_vars"
	DefaultRequestTemplatesTable = "request_templates"
)

// Time and Duration Constants
const (
	DefaultMaxConnLifetime = 5 * time.Minute
	DefaultMaxIdleTime     = 1 * time.Minute
	DefaultSQLiteLifetime  = 10 * time.Minute
	DefaultSQLiteIdleTime  = 5 * time.Minute

	DefaultStoreTimeout   = 10 * time.Second
	DefaultRequestTimeout = 30 * time.Second
)

// HTTP client defaults
const (
	DefaultUserAgent         = "Mozilla/5.0 (X11; Linux x86_64) rnpdno-scrapper"
	DefaultRequestsPerSecond = 2.0
	DefaultBurst             = 2
)

// Dashboard templates
const (
	CatalogueAPI           = "catalogue"
	StatesEndpoint         = "states"
	MunicipalitiesEndpoint = "municipalities"
	NeighborhoodsEndpoint  = "neighborhoods"

	DashboardAPI  = "dashboard"
	IndexEndpoint = "index"
	HomeEndpoint  = "home"

	StateIDField        = "idEstado"
	MunicipalityIDField = "idMunicipio"

	// AllSentinel is the catalog text the dashboard uses for "every item".
	AllSentinel = "--TODOS--"
	AllLabel    = "All"
)

// Wait Configuration Constants
const (
	DefaultWaitTimeout  = 60 * time.Second
	DefaultWaitInterval = 2 * time.Second
	DefaultWaitStatus   = http.StatusOK
	DefaultWaitMethod   = http.MethodGet
)
