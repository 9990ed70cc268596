package actions

import (
	"fmt"
	"strings"

	"github.com/imfpipe/imfpipe/config"
	"github.com/imfpipe/imfpipe/helper"
	"github.com/imfpipe/imfpipe/rdbms/shared"
	"github.com/pkg/errors"
)

type ConnectionConfig struct {
	ConfigFile  ConnectionGetterSetter
	LogicalName string
	Type        string
	ConnDetails ConnectionValidator // one of DsnConnectionDetails, SnowflakeConnectionDetails, S3ConnectionDetails.
	Force       bool
}

// RunConnectionAdd validates the supplied connection details and persists
// them under the logical name. An existing connection is only overwritten
// when Force is set.
func RunConnectionAdd(cfg *ConnectionConfig) error {
	connection := shared.ConnectionDetails{
		LogicalName: cfg.LogicalName,
		Type:        cfg.Type,
		Data:        make(map[string]string),
	}
	if err := helper.ValidateStructIsPopulated(connection); err != nil {
		return err
	}
	// Periods split data sources, e.g. <connection>[[.<schema>].<object>].
	if strings.Index(cfg.LogicalName, ".") > 0 {
		return fmt.Errorf("connection name cannot contain period characters '.' as they're used to split data sources e.g. <connection>[[.<schema>].<object>]")
	}
	if err := cfg.ConnDetails.Parse(); err != nil {
		return errors.Wrap(err, "unable to create connection")
	}
	var err error
	connection.Type, err = cfg.ConnDetails.GetScheme() // the DSN scheme carries the full connection type.
	if err != nil {
		return err
	}
	cfg.ConnDetails.GetMap(connection.Data)
	tmpConn := &shared.ConnectionDetails{}
	err = cfg.ConfigFile.Get(cfg.LogicalName, tmpConn)
	if err != nil {
		// A missing key just means the connection is new.
		if errors.Is(err, config.FileNotFoundError{}) {
			return err
		}
	} else if tmpConn.LogicalName != "" && !cfg.Force {
		return fmt.Errorf("connection exists, use force to update the connection or remove it first")
	}
	if err = cfg.ConfigFile.Set(cfg.LogicalName, &connection); err != nil {
		return fmt.Errorf("error writing connections config file after adding: %v", err)
	}
	fmt.Printf("Connection %q added\n", cfg.LogicalName)
	return nil
}

func RunConnectionRemove(cfg *ConnectionConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	if err := cfg.ConfigFile.Delete(cfg.LogicalName); err != nil {
		return fmt.Errorf("unable to delete connection %q from config: %v", cfg.LogicalName, err)
	}
	fmt.Printf("Connection %q removed\n", cfg.LogicalName)
	return nil
}
