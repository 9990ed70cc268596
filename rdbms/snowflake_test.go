package rdbms_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/rdbms"
	sf "github.com/snowflakedb/gosnowflake"
)

func TestSnowflakeOAuthDsnFromEnv(t *testing.T) {
	log := logger.NewLogger("imfpipe", "info", true)
	c := &rdbms.SnowflakeConnectionDetails{
		Account:   "myaccount",
		DBName:    "mydb",
		Schema:    "public",
		User:      "loader",
		Password:  "secret",
		Warehouse: "wh1",
		RoleName:  "sysadmin",
	}
	dsn, err := rdbms.SnowflakeGetDSN(c)
	if err != nil {
		t.Fatal(err)
	}

	// Without a token file mounted the DSN must come back untouched.
	if err := os.Setenv(constants.EnvVarSnowflakeTokenFile, "/nonexistent/token/file"); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Unsetenv(constants.EnvVarSnowflakeTokenFile) }()
	got, err := rdbms.SnowflakeOAuthDsnFromEnv(log, dsn)
	if err != nil {
		t.Fatal("expected no error when the token file is missing; got: ", err)
	}
	if got != dsn {
		t.Fatalf("expected the DSN to pass through unchanged; got %v", got)
	}

	// With a token file mounted the DSN must switch to OAuth authentication.
	dir, err := ioutil.TempDir("", "test-snowflake-token-")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(dir) }()
	tokenFile := filepath.Join(dir, "token")
	token := "my-oauth-token"
	if err := ioutil.WriteFile(tokenFile, []byte(token+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Setenv(constants.EnvVarSnowflakeTokenFile, tokenFile); err != nil {
		t.Fatal(err)
	}
	got, err = rdbms.SnowflakeOAuthDsnFromEnv(log, dsn)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := sf.ParseDSN(strings.TrimPrefix(got, "snowflake://"))
	if err != nil {
		t.Fatal("unable to parse the rewritten DSN: ", err)
	}
	if cfg.Authenticator != sf.AuthTypeOAuth {
		t.Fatalf("expected authenticator %v; got %v", sf.AuthTypeOAuth, cfg.Authenticator)
	}
	if cfg.Token != token { // trailing whitespace in the file must be dropped.
		t.Fatalf("expected token %q; got %q", token, cfg.Token)
	}
	if cfg.Password != "" {
		t.Fatal("expected the password to be cleared from an OAuth DSN")
	}
	if cfg.Account != c.Account || cfg.User != c.User || cfg.Database != c.DBName {
		t.Fatalf("expected account, user and database to survive the rewrite; got %v", got)
	}
}
