package actions

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"regexp"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/rdbms/shared"
	"github.com/imfpipe/imfpipe/transform"
)

// mustReplaceInStringUsingMapKeyVals replaces in s, by reference, each map
// key with its value. Used to substitute ${...} placeholders in the pipe
// templates.
func mustReplaceInStringUsingMapKeyVals(s *string, m map[string]string) {
	replacements := make([]string, 0, len(m)*2)
	for k, v := range m {
		replacements = append(replacements, k, v)
	}
	*s = strings.NewReplacer(replacements...).Replace(*s)
}

// outputPipeDefinition prints the given pipe definition JSON to stdout as
// YAML or JSON, optionally stripping connection credentials.
func outputPipeDefinition(log logger.Logger, transformString string, yamlOrJson string, includeConnections bool) error {
	t := transform.TransformDefinition{}
	if err := json.Unmarshal([]byte(transformString), &t); err != nil {
		return err
	}
	if !includeConnections {
		deleteConnections(&t)
	}
	switch yamlOrJson {
	case "yaml":
		writeTransformConfigToFile(log, &t, os.Stdout, true)
	case "json":
		writeTransformConfigToFile(log, &t, os.Stdout, false)
	default:
		return fmt.Errorf("unsupported output format %q", yamlOrJson)
	}
	return nil
}

// deleteConnections strips credentials, keeping only the connection type and
// logical name.
// TODO: add test for nil map being set.
func deleteConnections(t *transform.TransformDefinition) {
	for k := range t.Connections {
		c := t.Connections[k]
		t.Connections[k] = shared.ConnectionDetails{Type: c.Type, LogicalName: c.LogicalName}
	}
}

func writeTransformConfigToFile(log logger.Logger, t *transform.TransformDefinition, f io.Writer, useYaml bool) {
	var err error
	var data []byte
	if useYaml {
		data, err = yaml.Marshal(t)
	} else {
		data, err = json.MarshalIndent(t, "", "  ")
	}
	if err != nil {
		log.Panic("unable to marshal the transform: ", err)
	}
	if _, err = f.Write(data); err != nil {
		log.Panic(err)
	}
}

func mustExecFn(log logger.Logger, printLogFn func(msg string), execFn func() error) {
	printLogFn("Executing SQL...")
	if err := execFn(); err != nil {
		log.Panic(err)
	}
	printLogFn("SQL succeeded without error.")
}

func getPrintLogFunc(log logger.Logger, useStdOut bool) func(msg string) {
	return func(msg string) {
		if useStdOut {
			fmt.Println(msg)
		} else {
			log.Info(msg)
		}
	}
}

// loadTransformFromFile reads a pipe definition from a .json or .yaml file.
func loadTransformFromFile(transformFileName string) (*transform.TransformDefinition, error) {
	raw, err := ioutil.ReadFile(transformFileName)
	if err != nil {
		return nil, err
	}
	t := transform.TransformDefinition{}
	r := regexp.MustCompile(`.*\.(json|yaml)`)
	suffix := r.ReplaceAllString(strings.ToLower(transformFileName), `$1`)
	switch suffix {
	case "json":
		if err = json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("error reading transformation JSON: unmarshal errors: %v", err)
		}
	case "yaml":
		transformBytes, err := yaml.YAMLToJSON(raw) // http://ghodss.com/2014/the-right-way-to-handle-yaml-in-golang/
		if err != nil {
			return nil, err
		}
		if err = json.Unmarshal(transformBytes, &t); err != nil {
			return nil, fmt.Errorf("error reading transformation YAML after conversion to JSON: unmarshal errors: %v", err)
		}
	default:
		return nil, fmt.Errorf("unable to identify type of transformation file by its extension. Please use .yaml or .json")
	}
	return &t, nil
}

// mustJsonEscape marshals s to JSON and trims the surrounding quotes so the
// value can be embedded inside a pipe definition JSON string.
func mustJsonEscape(log logger.Logger, s string) string {
	escaped, err := json.Marshal(s)
	if err != nil {
		log.Panic(fmt.Sprintf("error marshalling %q: %v", s, err))
	}
	return strings.Trim(string(escaped), `"`)
}
