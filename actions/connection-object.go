package actions

import (
	"strings"
	"sync"
)

// ConnectionObject is constructed with its public field set using the format
// <connection>[.<schema>].<object> and lazily splits it into the logical
// connection name and the database object.
type ConnectionObject struct {
	ConnectionObject string `errorTxt:"<connection>.[<schema>.]<table or view>" mandatory:"yes"`
	connection       string
	object           string
	done             bool
	mu               sync.Mutex
}

func (c *ConnectionObject) GetConnectionName() string {
	c.splitConnectString()
	return c.connection
}

func (c *ConnectionObject) GetObject() string {
	c.splitConnectString()
	return c.object
}

// splitConnectString splits on the first period; everything after it,
// including any schema, becomes the object. Without a period the whole string
// is the connection name and the object stays "".
func (c *ConnectionObject) splitConnectString() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	if i := strings.Index(c.ConnectionObject, "."); i > 0 {
		c.connection = c.ConnectionObject[:i]
		c.object = c.ConnectionObject[i+1:]
	} else {
		c.connection = c.ConnectionObject
	}
	if c.ConnectionObject != "" {
		c.done = true
	}
}
