package helper

import (
	"fmt"
	"os"
	"strings"

	"github.com/imfpipe/imfpipe/constants"
)

// GetEnvVar reads an OS environment variable. An unset variable yields an
// empty string, plus an error when mandatory is true.
func GetEnvVar(k string, mandatory bool) (string, error) {
	value := os.Getenv(k)
	if value == "" && mandatory {
		return "", fmt.Errorf("environment variable %v is not set", k)
	}
	return value, nil
}

// ReadValueFromEnv populates val with the named environment variable,
// returning an error when it is unset.
func ReadValueFromEnv(name string, val *string) error {
	v := os.Getenv(name)
	if v == "" {
		return fmt.Errorf("value for environment variable %v not found", name)
	}
	*val = v
	return nil
}

// ReadValueFromEnvWithDefault reads the named environment variable, falling
// back to defaultValue when it is unset.
func ReadValueFromEnvWithDefault(name string, defaultValue string) (v string) {
	_ = ReadValueFromEnv(name, &v)
	if v == "" {
		v = defaultValue
	}
	return
}

// GetDsnEnvVarName returns the IMFP_<CONNECTION>_DSN variable name for a
// logical connection.
func GetDsnEnvVarName(connectionName string) string {
	n := strings.TrimSpace(strings.ToUpper(connectionName))
	return fmt.Sprintf("%v_%v_DSN", constants.EnvVarPrefix, n)
}

// GetRegionEnvVarName returns the IMFP_<CONNECTION>_S3_REGION variable name
// for a logical S3 connection.
func GetRegionEnvVarName(connectionName string) string {
	n := strings.TrimSpace(strings.ToUpper(connectionName))
	return fmt.Sprintf("%v_%v_S3_REGION", constants.EnvVarPrefix, n)
}
