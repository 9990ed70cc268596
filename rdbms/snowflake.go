package rdbms

import (
	"database/sql"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/helper"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/rdbms/shared"
	sf "github.com/snowflakedb/gosnowflake"
)

type SnowflakeConnectionDetails struct {
	Account        string `errorTxt:"Snowflake account" mandatory:"yes"`
	DBName         string `errorTxt:"Snowflake db name" mandatory:"yes"`
	Schema         string `errorTxt:"Snowflake schema" mandatory:"yes"`
	User           string `errorTxt:"Snowflake username" mandatory:"yes"`
	Password       string `errorTxt:"Snowflake password" mandatory:"yes"`
	Warehouse      string `errorTxt:"Snowflake warehouse"`
	RoleName       string `errorTxt:"Snowflake role name"`
	Dsn            string
	OriginalScheme string
}

func (d SnowflakeConnectionDetails) String() string {
	return fmt.Sprintf("%v:%v@%v/%v?schema=%v&warehouse=%v&role=%v",
		d.User,
		"xxxxxxx",
		d.Account,
		d.DBName,
		d.Schema,
		d.Warehouse,
		d.RoleName,
	)
}

func (d SnowflakeConnectionDetails) Parse() error {
	_, err := SnowflakeParseDSN(d.Dsn)
	return err
}

func (d SnowflakeConnectionDetails) GetScheme() (string, error) {
	return constants.ConnectionTypeSnowflake, nil
}

func (d SnowflakeConnectionDetails) GetMap(m map[string]string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[shared.DefaultDsnConnectionKeyNames.Dsn] = d.Dsn
	return m
}

// newSnowflakeConnection opens the Snowflake database connection specified in d.
// When an OAuth token file is mounted the DSN is rewritten to use it in place
// of password authentication.
func newSnowflakeConnection(log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	oauthDsn, err := SnowflakeOAuthDsnFromEnv(log, d.Dsn)
	if err != nil {
		return nil, err
	}
	dsn := strings.TrimPrefix(oauthDsn, "snowflake://")
	conn := &shared.DbConnection{
		Dml:    &shared.DmlGeneratorTxtBatch{},
		DbType: "snowflake",
	}
	conn.Db, err = sql.Open("snowflake", dsn)
	if err != nil {
		return nil, err
	}
	err = conn.Db.Ping()
	if err != nil {
		log.Panic(err)
	}
	log.Info("Successful database connection to Snowflake.")
	return conn, nil
}

func SnowflakeDDLExec(log logger.Logger, connDetails *shared.DsnConnectionDetails, sql string) error {
	conn, err := newSnowflakeConnection(log, connDetails)
	if err != nil {
		return err
	}
	defer conn.Close()
	rows, err := conn.Query(sql) // no cancel is allowed
	if err != nil {
		return fmt.Errorf("failed to run query: '%v', error: %v", sql, err)
	} else {
		defer rows.Close()
	}
	return nil
}

// SnowflakeGetDSN constructs a DSN based on SnowflakeConnectionDetails.
// The prefix 'snowflake://' is added to the DSN.
func SnowflakeGetDSN(c *SnowflakeConnectionDetails) (string, error) {
	cfg := &sf.Config{
		Account:        c.Account,
		Database:       c.DBName,
		Schema:         c.Schema,
		User:           c.User,
		Password:       c.Password,
		Warehouse:      c.Warehouse,
		Role:           c.RoleName,
		LoginTimeout:   time.Duration(constants.SnowflakeLoginTimeoutSecs) * time.Second,
		RequestTimeout: time.Duration(constants.SnowflakeQueryTimeoutSecs) * time.Second,
	}
	dsn, err := sf.DSN(cfg)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(dsn, "snowflake://") { // if the prefix is missing...
		dsn = fmt.Sprintf("snowflake://%v", dsn)
	}
	return dsn, err
}

// SnowflakeParseDSN converts a Snowflake DSN into native connection details.
// The prefix 'snowflake://' is removed from the DSN if it exists.
func SnowflakeParseDSN(d string) (*SnowflakeConnectionDetails, error) {
	if !strings.HasPrefix(d, "snowflake://") {
		return nil, errors.New("unsupported Snowflake DSN format")
	}
	d = strings.TrimPrefix(d, "snowflake://")
	// Parse the real DSN.
	cfg, err := sf.ParseDSN(d)
	if err != nil {
		return nil, err
	}
	retval := &SnowflakeConnectionDetails{
		User:      cfg.User,
		Password:  cfg.Password,
		Schema:    cfg.Schema,
		DBName:    cfg.Database,
		Account:   cfg.Account,
		RoleName:  cfg.Role,
		Warehouse: cfg.Warehouse,
	}
	if cfg.Region != "" { // if region exists in the parsed config...
		// Add it to our account settings.
		retval.Account = fmt.Sprintf("%v.%v", retval.Account, cfg.Region)
	}
	return retval, nil
}

// SnowflakeOAuthDsnFromEnv checks for a mounted OAuth token file, at the path
// named by environment variable IMFP_SNOWFLAKE_TOKEN_FILE or at the default
// mount point, and returns dsn rewritten for OAuth authentication when the
// file exists.  Without a token file the DSN is returned untouched.
func SnowflakeOAuthDsnFromEnv(log logger.Logger, dsn string) (string, error) {
	tokenFile := helper.ReadValueFromEnvWithDefault(constants.EnvVarSnowflakeTokenFile, constants.SnowflakeTokenFileDefault)
	if _, err := os.Stat(tokenFile); err != nil { // if there is no token mounted...
		log.Debug("no Snowflake OAuth token file at ", tokenFile, "; using the DSN as supplied")
		return dsn, nil
	}
	log.Info("using Snowflake OAuth token file ", tokenFile)
	return SnowflakeDsnWithOAuthToken(dsn, tokenFile)
}

// SnowflakeDsnWithOAuthToken rewrites the supplied DSN so the connection
// authenticates with the OAuth token read from tokenFile instead of a
// password.  Containers running next to Snowflake (e.g. Snowpark Container
// Services) mount the token at /snowflake/session/token.
func SnowflakeDsnWithOAuthToken(dsn string, tokenFile string) (string, error) {
	token, err := ioutil.ReadFile(tokenFile)
	if err != nil {
		return "", fmt.Errorf("unable to read Snowflake OAuth token file %v: %v", tokenFile, err)
	}
	d := strings.TrimPrefix(dsn, "snowflake://")
	cfg, err := sf.ParseDSN(d)
	if err != nil {
		return "", err
	}
	cfg.Authenticator = sf.AuthTypeOAuth
	cfg.Token = strings.TrimSpace(string(token))
	cfg.Password = ""
	newDsn, err := sf.DSN(cfg)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(newDsn, "snowflake://") {
		newDsn = fmt.Sprintf("snowflake://%v", newDsn)
	}
	return newDsn, nil
}

// GetSqlSliceSnowflakeStagingPrepare returns the statements that (re)create
// and empty the staging table for tgt, cloning the target's shape.
func GetSqlSliceSnowflakeStagingPrepare(tgt SchemaTable, stg SchemaTable) []string {
	return []string{
		fmt.Sprintf("create table if not exists %v like %v", stg.String(), tgt.String()),
		fmt.Sprintf("truncate table %v", stg.String()),
	}
}

// GetSqlSnowflakeSwap returns the atomic cut-over statement.  The swap is a
// vendor guarantee; callers only sequence it after verification.
func GetSqlSnowflakeSwap(tgt SchemaTable, stg SchemaTable) string {
	return fmt.Sprintf("alter table %v swap with %v", tgt.String(), stg.String())
}

// GetSqlSnowflakeRowCount returns the statement used to poll the committed
// row count of a table.
func GetSqlSnowflakeRowCount(t SchemaTable) string {
	return fmt.Sprintf("select count(*) from %v", t.String())
}

// GetSqlSnowflakeTargetTableDDL returns the DDL for the default indicators
// target table.
func GetSqlSnowflakeTargetTableDDL(t SchemaTable) string {
	return fmt.Sprintf(`create table if not exists %v (
  %v varchar,
  %v varchar,
  %v number,
  %v float,
  %v timestamp_ntz
)`,
		t.String(),
		constants.FieldIndicator,
		constants.FieldCountryCode,
		constants.FieldYear,
		constants.FieldValue,
		constants.FieldIngestionTimestamp)
}
