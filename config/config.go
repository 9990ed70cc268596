package config

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"strings"
	"sync"

	"github.com/imfpipe/imfpipe/rdbms/shared"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"
)

var imfPipeHomeDir string

// Main holds flag defaults; Connections holds named connection details.
// Both live under ~/.imfpipe and are encrypted at rest.
var Main *File
var Connections *File

// TODO: disable config file operations in twelveFactorMode for performance reasons.

func init() {
	Main = NewConfigFile2WithDir(mustGetConfigHomeDir(), MainFileFullName)
	Connections = NewConfigFile2WithDir(mustGetConfigHomeDir(), ConnectionsConfigFileFullName)
}

const (
	MainDir                         = ".imfpipe"
	MainFileNamePrefix              = "config"
	MainFileNameExt                 = "yaml"
	MainFileFullName                = MainFileNamePrefix + "." + MainFileNameExt
	ConnectionsConfigFileNamePrefix = "connections"
	ConnectionsConfigFileNameExt    = "yaml"
	ConnectionsConfigFileFullName   = ConnectionsConfigFileNamePrefix + "." + ConnectionsConfigFileNameExt
)

// FileNotFoundError denotes a missing configuration file.
type FileNotFoundError struct {
	name string
}

func (f FileNotFoundError) Error() string {
	return fmt.Sprintf("config file %q not found", f.name)
}

// KeyNotFoundError denotes a missing key within a configuration file.
type KeyNotFoundError struct {
	configFile string
	key        string
	err        error
}

func (k KeyNotFoundError) Error() string {
	if k.err != nil {
		return fmt.Sprintf("key %q not found in config file %q: %v", k.key, k.configFile, k.err)
	}
	return fmt.Sprintf("key %q not found in config file %q", k.key, k.configFile)
}

// File is one YAML config file holding a flat key -> value map, loaded lazily
// and persisted through an EncryptedFile.
type File struct {
	Dirname      string
	FileName     string
	FilePrefix   string
	FileExt      string
	FullPath     string
	data         map[string]interface{}
	dataIsLoaded bool
	f            *EncryptedFile
	mu           sync.Mutex
}

func NewConfigFile2WithDir(dirName string, filename string) *File {
	ext := strings.TrimLeft(path.Ext(filename), ".")
	return &File{
		Dirname:    dirName,
		FileName:   filename,
		FilePrefix: strings.TrimRight(filename, "."+ext),
		FileExt:    ext,
		FullPath:   path.Join(dirName, filename),
		data:       make(map[string]interface{}),
		f:          NewEncryptedFileInConfigHomeDir(filename),
	}
}

// ensureLoaded lazily reads the file. With tolerateMissing set, a missing
// file is not an error; the file is created on the next save.
func (c *File) ensureLoaded(tolerateMissing bool) error {
	if c.dataIsLoaded {
		return nil
	}
	err := c.loadData()
	if err != nil && tolerateMissing && errors.As(err, &FileNotFoundError{}) {
		return nil
	}
	return err
}

// Get decodes the value stored against key into out, which must be a pointer.
// Supported out types are string and ConnectionDetails.
func (c *File) Get(key string, out interface{}) error {
	val := reflect.ValueOf(out)
	if val.Kind() != reflect.Ptr {
		return errors.New("out must be a pointer")
	}
	if err := c.ensureLoaded(false); err != nil {
		return err
	}
	d, found := c.data[key]
	if !found {
		// TODO: move type-specific error handling to the caller.
		switch v := val.Elem().Interface().(type) {
		case string:
			if v == "" {
				return KeyNotFoundError{c.FullPath, key, fmt.Errorf("missing string value for key")}
			}
		case shared.ConnectionDetails:
			if reflect.DeepEqual(v, shared.ConnectionDetails{}) {
				return KeyNotFoundError{c.FullPath, key, fmt.Errorf("missing database connection")}
			}
		}
	}
	return mapstructure.Decode(d, out)
}

// Set stores key=val and rewrites the file.
func (c *File) Set(key string, val interface{}) error {
	if err := c.ensureLoaded(true); err != nil {
		return err
	}
	c.data[key] = val
	return c.save(key)
}

// Delete removes key and rewrites the file. Missing keys are an error.
func (c *File) Delete(key string) error {
	if err := c.ensureLoaded(true); err != nil {
		return err
	}
	if _, found := c.data[key]; !found {
		return errors.New("key not found")
	}
	delete(c.data, key)
	return c.save(key)
}

// GetAllKeys returns the keys present in the file; a missing file yields an
// empty list.
func (c *File) GetAllKeys() ([]string, error) {
	if err := c.ensureLoaded(true); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (c *File) save(key string) error {
	b, err := yaml.Marshal(c.data)
	if err != nil {
		return fmt.Errorf("error marshalling data while writing key %v to config file %v: %v", key, c.FullPath, err)
	}
	return c.f.Set(b)
}

func (c *File) loadData() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := c.f.Get()
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, c.data); err != nil {
		return err
	}
	c.dataIsLoaded = true
	return nil
}
