package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/imfpipe/imfpipe/actions"
	"github.com/imfpipe/imfpipe/aws/s3"
	"github.com/imfpipe/imfpipe/config"
	c "github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/helper"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/rdbms"
	"github.com/imfpipe/imfpipe/rdbms/shared"
	"github.com/xo/dburl"
)

// This init runs before the others in this package by lexical file order,
// so twelveFactorMode is decided before the Cobra init() funcs read env
// variables for their flag defaults.
func init() {
	setupTwelveFactorMode()
}

// setupTwelveFactorMode enables or disables 12 factor mode based on the
// environment. Tests may have toggled the mode, so an unset variable turns it
// off explicitly.
func setupTwelveFactorMode() {
	mode := os.Getenv(envVarTwelveFactorMode)
	if mode == "" {
		twelveFactorMode = false
		return
	}
	twelveFactorMode = true
	if strings.ToLower(mode) == "lambda" {
		lambdaMode = true
	}
}

const (
	envVarTwelveFactorMode      = c.EnvVarPrefix + "_" + "12FACTOR_MODE"
	envVarCommand               = c.EnvVarPrefix + "_" + "COMMAND"
	envVarSubcommand            = c.EnvVarPrefix + "_" + "SUBCOMMAND"
	envVarTargetObject          = c.EnvVarPrefix + "_" + "TARGET_OBJECT" // <connection-name>.[<schema>.]<table>
	envVarTargetType            = c.EnvVarPrefix + "_" + "TARGET_TYPE"  // snowflake|s3|etc
	envVarTargetS3Region        = c.EnvVarPrefix + "_" + "TARGET_S3_REGION"
	envVarLogLevel              = c.EnvVarPrefix + "_" + "LOG_LEVEL"
	envVarStackDump             = c.EnvVarPrefix + "_" + "STACK_DUMP"
	defaultConnectionNameTarget = "TARGET"
)

var (
	twelveFactorMode bool // set when envVarTwelveFactorMode is present.
	lambdaMode       bool // set when envVarTwelveFactorMode equals "lambda".
	twelveFactorVars = map[string]string{
		envVarCommand:    "",
		envVarSubcommand: "",
		// Target
		envVarTargetType: "",
		helper.GetDsnEnvVarName(defaultConnectionNameTarget): "",
		envVarTargetObject:   "",
		envVarTargetS3Region: "",
		// Misc
		envVarLogLevel:  "",
		envVarStackDump: "",
	}
	// Variables in here never have their values logged.
	twelveFactorVarsSensitive = map[string]string{
		helper.GetDsnEnvVarName(defaultConnectionNameTarget): "",
	}
)

type twelveFactorAction struct {
	setupFunc  func(tgt string)
	runnerFunc func() error
}

var twelveFactorActions = map[string]twelveFactorAction{
	"load-snapshot": {
		setupFunc: func(tgt string) {
			loadSnapCfg.TargetString.ConnectionObject = tgt
		},
		runnerFunc: runLoadSnap,
	},
	"load-stage": {
		setupFunc: func(tgt string) {
			loadStageCfg.TargetString.ConnectionObject = tgt
		},
		runnerFunc: runLoadStage,
	},
	"load-stream": {
		setupFunc: func(tgt string) {
			loadStreamCfg.TargetString.ConnectionObject = tgt
		},
		runnerFunc: runLoadStream,
	},
}

func getConnectionHandler() actions.ConnectionHandler {
	if twelveFactorMode {
		return &TwelveFactorConnections{}
	}
	return config.Connections
}

func getConnectionLoader() actions.ConnectionLoader {
	if twelveFactorMode {
		return &TwelveFactorConnections{}
	}
	return config.Connections
}

func getConnectionGetterSetter() actions.ConnectionGetterSetter {
	if twelveFactorMode {
		fmt.Printf("Error: connections cannot be configured when %v is set (supply them using %v instead)",
			envVarTwelveFactorMode,
			helper.GetDsnEnvVarName("<target-connection-name>"))
		os.Exit(1)
	}
	return config.Connections
}

// execute12FactorMode reads the command, subcommand and target details from
// the environment and runs the matching action as if it had been invoked via
// CLI flags.
func execute12FactorMode(acts map[string]twelveFactorAction) (err error) {
	// logLevel comes from the env here because it is not a persistent flag;
	// each Cobra action wants a different logging default.
	logLevel := helper.ReadValueFromEnvWithDefault(envVarLogLevel, "warn")
	log := logger.NewLogger("imfpipe", logLevel, stackDumpOnPanic)
	log.Info("imfpipe is running in 12 Factor mode...")
	// TODO: add validation of supplied env variables - perhaps using a map[string]MyStructWithValidationData.
	for k := range twelveFactorVars {
		twelveFactorVars[k] = os.Getenv(k)
		if _, sensitive := twelveFactorVarsSensitive[k]; sensitive {
			log.Debug(k, "=", "<obfuscated>")
		} else {
			log.Debug(k, "=", twelveFactorVars[k])
		}
	}
	action := fmt.Sprintf("%v-%v", twelveFactorVars[envVarCommand], twelveFactorVars[envVarSubcommand])
	a, ok := acts[action]
	if !ok {
		err = fmt.Errorf("invalid combination of command (%v) and subcommand (%v)", twelveFactorVars[envVarCommand], twelveFactorVars[envVarSubcommand])
		log.Error(err.Error())
		return
	}
	// Build the target connection string the way Cobra would have from CLI
	// args, e.g. TARGET.IMF.INDICATOR_VALUES.
	a.setupFunc(
		fmt.Sprintf("%v.%v", defaultConnectionNameTarget, twelveFactorVars[envVarTargetObject]),
	)
	if err = a.runnerFunc(); err != nil {
		log.Error("Error: ", err)
	}
	return err
}

// TwelveFactorConnections resolves connections from environment variables
// instead of the encrypted config file. It implements the connection
// interfaces in package actions.
type TwelveFactorConnections struct{}

// GetConnectionType returns the value of envVarTargetType. Only the default
// target connection name is valid in 12 factor mode.
func (t *TwelveFactorConnections) GetConnectionType(connectionName string) (connectionType string, err error) {
	if connectionName != defaultConnectionNameTarget {
		return "", fmt.Errorf("unexpected connectionName %v while running in twelveFactorMode", connectionName)
	}
	connectionType, ok := twelveFactorVars[envVarTargetType]
	if !ok {
		err = fmt.Errorf("missing value for %v", envVarTargetType)
	}
	return
}

// GetConnectionDetails builds shared.ConnectionDetails from the DSN and type
// environment variables for the supplied connectionName, which is expected to
// be defaultConnectionNameTarget. An error is produced when the DSN does not
// parse for the connection type.
func (t *TwelveFactorConnections) GetConnectionDetails(connectionName string) (*shared.ConnectionDetails, error) {
	connectionDetails := shared.ConnectionDetails{
		LogicalName: connectionName,
		Data:        make(map[string]string),
	}
	kDsn := helper.GetDsnEnvVarName(connectionName)
	var vDsn string
	if err := helper.ReadValueFromEnv(kDsn, &vDsn); err != nil {
		return nil, fmt.Errorf("unable to find value for %v in the environment: %w", kDsn, err)
	}
	vType, err := t.GetConnectionType(connectionName)
	if err != nil {
		return nil, err
	}
	connectionDetails.Type = vType
	switch vType {
	case c.ConnectionTypeSnowflake:
		if _, err := rdbms.SnowflakeParseDSN(vDsn); err != nil {
			return nil, err
		}
		connectionDetails.Data = shared.DsnConnectionDetailsToMap(connectionDetails.Data, &shared.DsnConnectionDetails{Dsn: vDsn})
	case c.ConnectionTypeS3:
		var vRegion string
		kRegion := helper.GetRegionEnvVarName(connectionName)
		if err := helper.ReadValueFromEnv(kRegion, &vRegion); err != nil {
			// TODO: log this correctly instead of fmt.
			fmt.Printf("bucket region not found in environment variable %v\n", kRegion)
		}
		cn, err := s3.ParseDSN(vDsn, vRegion)
		if err != nil {
			return nil, err
		}
		connectionDetails.Data = s3.AwsBucketToMap(connectionDetails.Data, cn)
	default:
		// Fall back to a generic DSN connection type.
		if !actions.IsSupportedConnectionType(vType) {
			return nil, fmt.Errorf("unsupported connection type %q for DSN %q", vType, vDsn)
		}
		if _, err := dburl.Parse(vDsn); err != nil {
			return nil, err
		}
		connectionDetails.Data = shared.DsnConnectionDetailsToMap(connectionDetails.Data, &shared.DsnConnectionDetails{Dsn: vDsn})
	}
	return &connectionDetails, nil
}

// LoadConnection loads the connection DSN from the environment, parses it
// based on the type set in the environment and returns the
// shared.ConnectionDetails. This mirrors loading connection details from the
// config file, for the pipe action where the full details may not be saved
// into the pipe definition.
func (t *TwelveFactorConnections) LoadConnection(connectionName string) (shared.ConnectionDetails, error) {
	kDsn := helper.GetDsnEnvVarName(connectionName)
	var vDsn, vType string
	if err := helper.ReadValueFromEnv(kDsn, &vDsn); err != nil {
		return shared.ConnectionDetails{}, err
	}
	if err := helper.ReadValueFromEnv(envVarTargetType, &vType); err != nil {
		return shared.ConnectionDetails{}, err
	}
	vType = strings.TrimSpace(strings.ToUpper(vType))
	m := make(map[string]string)
	switch vType {
	case "SNOWFLAKE":
		cn, err := rdbms.SnowflakeParseDSN(vDsn)
		if err != nil {
			return shared.ConnectionDetails{}, err
		}
		// Round-trip the DSN so it carries the driver's defaults.
		dsn, err := rdbms.SnowflakeGetDSN(cn)
		if err != nil {
			return shared.ConnectionDetails{}, err
		}
		shared.DsnConnectionDetailsToMap(m, &shared.DsnConnectionDetails{Dsn: dsn})
	case "S3":
		var vRegion string
		kRegion := helper.GetRegionEnvVarName(connectionName)
		if err := helper.ReadValueFromEnv(kRegion, &vRegion); err != nil {
			// TODO: log this correctly instead of fmt.
			fmt.Printf("bucket region not found in environment variable %v\n", kRegion)
		}
		cn, err := s3.ParseDSN(vDsn, vRegion)
		if err != nil {
			return shared.ConnectionDetails{}, err
		}
		m["name"] = cn.Name
		m["prefix"] = cn.Prefix
		m["region"] = cn.Region
	}
	return shared.ConnectionDetails{
		Type:        vType,
		LogicalName: connectionName,
		Data:        m,
	}, nil
}
