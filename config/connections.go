package config

import (
	"fmt"
	"strings"

	"github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/rdbms/shared"
)

// GetConnectionType looks up the named connection and returns its type.
// The special name "stdout" short-circuits since it has no stored details.
func (c *File) GetConnectionType(connectionName string) (connectionType string, err error) {
	if strings.ToLower(connectionName) == constants.ConnectionTypeStdout {
		return constants.ConnectionTypeStdout, nil
	}
	genericConn := &shared.ConnectionDetails{}
	if err := c.Get(connectionName, genericConn); err != nil {
		return "", err
	}
	if genericConn.Type == "" {
		return "", fmt.Errorf("unknown type for connection %q", connectionName)
	}
	return genericConn.Type, nil
}

// GetConnectionDetails fetches the named connection's details, erroring with
// a hint to run 'config' when the connection has not been added yet.
func (c *File) GetConnectionDetails(connectionName string) (*shared.ConnectionDetails, error) {
	genericConn := &shared.ConnectionDetails{}
	if err := c.Get(connectionName, genericConn); err != nil {
		return nil, err
	}
	if genericConn.Type == "" {
		return nil, fmt.Errorf("connection %q is not configured: use 'config' command to create it", connectionName)
	}
	return genericConn, nil
}

// LoadConnection implements the ConnectionLoader interface over this file.
func (c *File) LoadConnection(connectionName string) (shared.ConnectionDetails, error) {
	d := shared.ConnectionDetails{}
	err := c.Get(connectionName, &d)
	return d, err
}
