package cmd

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/imfpipe/imfpipe/actions"
	"github.com/imfpipe/imfpipe/config"
	"github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/helper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	argsDefinitionTxt = "<target-connection>.[<schema>.]<object>"
)

type cliFlag struct {
	name      string // name of flag
	val       string // default value
	shortHand string // single character name for the flag
	desc      string // description of the flag; the long text
}

type cliFlags map[string]cliFlag

var switches = cliFlags{
	"mock": cliFlag{name: "mock", shortHand: "m", desc: "test-only mock switch"},
	"api-url": cliFlag{name: "api-url", shortHand: "u",
		desc: "Base URL of the IMF DataMapper API"},
	"dataset": cliFlag{name: "dataset", shortHand: "D",
		desc: "Dataset to restrict indicators to e.g. WEO, FM or GDD.\n" +
			"Leave blank to allow indicators from any dataset"},
	"indicators": cliFlag{name: "indicators", shortHand: "C",
		desc: "The <CSV of indicator codes> to fetch e.g. NGDP_RPCH,PCPIPCH.\n" +
			"Leave blank to fetch all indicators found in the dataset"},
	"api-timeout": cliFlag{name: "api-timeout", shortHand: "T",
		desc: "HTTP timeout in seconds for DataMapper API requests"},
	"year-from": cliFlag{name: "year-from", shortHand: "F",
		desc: "Keep indicator values from this year onwards (use 0 for no lower bound)"},
	"year-to": cliFlag{name: "year-to", shortHand: "Y",
		desc: "Keep indicator values up to and including this year (use 0 for no upper bound)"},
	"stage": cliFlag{name: "stage", shortHand: "s",
		desc: "Name of the external Snowflake stage to COPY data files from"},
	"s3-bucket": cliFlag{name: "s3-bucket", shortHand: "b",
		desc: "AWS S3 bucket used to stage CSV files before loading into Snowflake \n" +
			"(credentials come from the usual AWS environment variables)"},
	"s3-prefix": cliFlag{name: "s3-prefix", shortHand: "P",
		desc: "Key prefix within the S3 bucket"},
	"s3-region": cliFlag{name: "s3-region", shortHand: "R",
		desc: "Region of the S3 bucket"},
	"s3-url": cliFlag{name: "s3-url", shortHand: "U",
		desc: "S3 bucket URL to bake into the new STAGE object, format: s3://<bucket>[/<prefix>/]"},
	"s3-key": cliFlag{name: "s3-key", shortHand: "K",
		desc: "IAM access key with rights on the bucket (or set AWS_ACCESS_KEY_ID)"},
	"s3-secret": cliFlag{name: "s3-secret", shortHand: "S",
		desc: "IAM secret for the access key (or set AWS_SECRET_ACCESS_KEY)"},
	"csv-prefix": cliFlag{name: "csv-prefix", shortHand: "c",
		desc: "The name prefix for CSV files generated and staged in the S3 bucket.\n" +
			"Leave blank to use the target table name"},
	"csv-bytes": cliFlag{name: "csv-bytes", shortHand: "y",
		desc: "Rotate onto a new CSV file once this many bytes are written (0 for unlimited)"},
	"csv-rows": cliFlag{name: "csv-rows", shortHand: "r",
		desc: "Rotate onto a new CSV file once this many rows are written (0 for unlimited)"},
	"repeat": cliFlag{name: "repeat", shortHand: "i",
		desc: "Seconds to sleep before repeating the load action, keeping the warehouse \n" +
			"near real-time. 0 runs the load once"},
	"output": cliFlag{name: "output", shortHand: "o",
		desc: "Print the generated pipe definition as \"yaml\" or \"json\" instead of running it; \n" +
			"redirect to a file for later use with the \"pipe\" action"},
	"log-level": cliFlag{name: "log-level", shortHand: "l",
		desc: "One of \"error | warn | info | debug\"; at \"warn\" only step statistics \n" +
			"are emitted"},
	"dry-run": cliFlag{name: "dry-run", shortHand: "d",
		desc: "Show the SQL query without running it"},
	"connection-name": cliFlag{name: "connection-name", shortHand: "c",
		desc: "Logical connection name that pipe actions refer to"},
	"dsn": cliFlag{name: "dsn", shortHand: "d",
		desc: "Full connect string; overrides the individual connection flags"},
	"s3-dsn": cliFlag{name: "dsn", shortHand: "d",
		desc: "Bucket DSN of the form s3://<bucket name>/<prefix>; overrides the individual flags"},
	"force-connection": cliFlag{name: "force", shortHand: "f",
		desc: "Overwrite the connection if it already exists"},
	"execute-ddl": cliFlag{name: "execute-ddl", shortHand: "e",
		desc: "Run the generated DDL against the target connection instead of printing it"},
	"with-staging": cliFlag{name: "with-staging", shortHand: "w",
		desc: "Also generate DDL for the <table>_STAGING twin used by 'load stream' actions"},
	"commit-batch-size": cliFlag{name: "commit-batch-size", shortHand: "B",
		desc: "Rows inserted per transaction before a commit is issued"},
	"verify-attempts": cliFlag{name: "verify-attempts", shortHand: "V",
		desc: "Max number of times to poll the staging table row count before \n" +
			"aborting the swap"},
	"verify-sleep": cliFlag{name: "verify-sleep", shortHand: "W",
		desc: "Seconds to sleep between staging table row count polls"},
	"include-connections": cliFlag{name: "include-connections", shortHand: "I",
		desc: "Keep connection credentials in the definition printed by the 'output' flag"},
	"append": cliFlag{name: "append", shortHand: "a",
		desc: "Optionally append to the target table instead of replacing its contents.\n" +
			"If append is false, 'load snapshot' TRUNCATEs the target prior to loading and\n" +
			"'load stage' DELETEs target rows then uses COPY INTO with FORCE=TRUE to reload\n" +
			"data files regardless of the load history"},
	"print-header": cliFlag{name: "print-header", shortHand: "x",
		desc: "Emit a column header row before SQL query results"},
	"file": cliFlag{name: "file", shortHand: "f",
		desc: "Pipe definition file to run (.yaml or .json)"},
	"web-service": cliFlag{name: "web-service", shortHand: "w",
		desc: "Also start the web service so the pipe can be monitored over HTTP"},
	"port": cliFlag{name: "port", shortHand: "p",
		desc: "TCP port for the web service to listen on"},
	"stats": cliFlag{name: "stats", shortHand: "L",
		desc: "Seconds between step statistic dumps (0 disables them)"},
	"abort-after": cliFlag{name: "abort-after", shortHand: "n",
		desc: "The number of records to fetch before aborting (use 0 to fetch all records)"},
}

// addFlag registers a flag on Cobra command c, dispatching on the type behind
// targetVar (which must be a pointer). The flag is looked up by name in the
// switches map. In 12 factor mode Cobra is bypassed entirely: the target
// variable is populated straight from the environment (or defaultValue), and
// required flags are not enforced. Outside 12 factor mode the default comes
// from the main config file when present, falling back to defaultValue.
// desc2 is appended to the registered description.
// Note this reads package-level twelveFactorMode rather than taking an
// interface; call sites live in init() funcs and an interface would make them
// noisier for no gain.
func (f *cliFlags) addFlag(c *cobra.Command, targetVar interface{}, name string, defaultValue string, required bool, desc2 string) {
	if reflect.ValueOf(targetVar).Kind() != reflect.Ptr {
		fmt.Println("error adding flag: targetVar must be a pointer")
		os.Exit(1)
	}
	sw := f.getCliFlag(name, defaultValue, config.Main.Get)
	desc := sw.desc + desc2
	switch p := targetVar.(type) {
	case *string:
		if twelveFactorMode {
			*p = sw.val
			break
		}
		c.Flags().StringVarP(p, sw.name, sw.shortHand, sw.val, desc)
		if sw.val != "" {
			// Mark the flag as set so config-sourced defaults satisfy
			// required-flag checks.
			mustSetFlag(c.Flags(), sw.name, sw.val)
		}
	case *bool:
		if twelveFactorMode {
			// Any non-empty value counts as true.
			*p = sw.val != ""
			break
		}
		// TODO: test that boolean config values stored in Main work for True as well as true.
		defaultBool := strings.ToLower(sw.val) == "true"
		c.Flags().BoolVarP(p, sw.name, sw.shortHand, defaultBool, desc)
		mustSetFlag(c.Flags(), sw.name, strconv.FormatBool(defaultBool))
	case *int:
		defaultInt, err := strconv.Atoi(sw.val)
		if err != nil {
			fmt.Printf("the value for flag %q must be an integer: %v\n", sw.name, err)
			os.Exit(1)
		}
		if twelveFactorMode {
			*p = defaultInt
			break
		}
		c.Flags().IntVarP(p, sw.name, sw.shortHand, defaultInt, desc)
		if sw.val != "" {
			mustSetFlag(c.Flags(), sw.name, sw.val)
		}
	default:
		panic("Error: unhandled CLI flag target value type")
	}
	if required && !twelveFactorMode {
		_ = c.MarkFlagRequired(sw.name)
	}
}

// getCliFlag returns the registered cliFlag for name with its default value
// resolved: from the environment in 12 factor mode, else via fnGetConfig.
// The supplied defaultValue fills in when neither source has a value.
// TODO: bind getCliFlag() to cliFlags once we're done migrating old commands.
func (f *cliFlags) getCliFlag(name string, defaultValue string, fnGetConfig func(key string, out interface{}) error) cliFlag {
	s, ok := switches[name]
	if !ok {
		panic(fmt.Sprintf("unregistered CLI flag, %q", name))
	}
	if twelveFactorMode {
		if err := helper.ReadValueFromEnv(flagNameToEnvVar(name), &s.val); err != nil {
			s.val = defaultValue
		}
		return s
	}
	err := fnGetConfig(s.name, &s.val)
	if errors.As(err, &config.KeyNotFoundError{}) || s.val == "" {
		s.val = defaultValue
	}
	return s
}

// flagNameToEnvVar forms a sanitised environment variable name using
// constants.EnvVarPrefix.
func flagNameToEnvVar(name string) string {
	return constants.EnvVarPrefix + "_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func mustSetFlag(f *pflag.FlagSet, name string, val string) {
	if err := f.Set(name, val); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// getConnectionArgsFunc returns a Cobra args validator expecting exactly one
// positional arg, saved into src as the target connection object.
func getConnectionArgsFunc(src *actions.ConnectionObject, customErrMsg string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			if customErrMsg != "" {
				return errors.New(customErrMsg)
			}
			return errors.New("requires target <connection>")
		}
		*src = actions.ConnectionObject{ConnectionObject: args[0]}
		return nil
	}
}

// getQueryFromArgsFunc returns a Cobra args validator that takes the first
// arg as the connection and joins the rest into a single SQL string.
func getQueryFromArgsFunc(src *actions.ConnectionObject, query *string, customErrMsg string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			if customErrMsg != "" {
				return errors.New(customErrMsg)
			}
			return errors.New("please supply a connection and a SQL query")
		}
		*src = actions.ConnectionObject{ConnectionObject: args[0]}
		*query = strings.Join(args[1:], " ")
		return nil
	}
}
