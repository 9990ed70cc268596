package actions

import (
	"github.com/imfpipe/imfpipe/rdbms/shared"
)

// ConnectionHandler resolves a logical connection name to its type and full
// details.
type ConnectionHandler interface { // TODO: why is GetConnectionDetails() used to load connections just like interface ConnectionLoader{}?
	GetConnectionType(connectionName string) (connectionType string, err error)
	GetConnectionDetails(connectionName string) (connectionDetails *shared.ConnectionDetails, err error)
}

// ConnectionLoader loads a logical connection by name.
type ConnectionLoader interface {
	LoadConnection(connectionName string) (shared.ConnectionDetails, error)
}

// ConnectionGetterSetter reads and writes connections in a config store.
type ConnectionGetterSetter interface {
	Get(key string, out interface{}) error
	Set(key string, val interface{}) error
	Delete(key string) error
}

// ConnectionValidator parses user-supplied connection details and renders
// them to the map stored in config.
type ConnectionValidator interface {
	Parse() error
	GetMap(m map[string]string) map[string]string
	GetScheme() (string, error)
}
