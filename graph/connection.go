package graph

import "github.com/efficios/babeltrace2-go/cmn/cos"

// Connection links one upstream output Port to one downstream input Port
// (spec §3 "Connection"). Both endpoints are weak; the graph owns
// connections. ID is a short, log-friendly instance identifier (spec §7
// "originating component" context carried on errors and trace lines).
type Connection struct {
	Upstream   *Port
	Downstream *Port
	ID         string
	graph      *Graph // weak
}

func (c *Connection) Graph() *Graph { return c.graph }

func newConnectionID() string { return cos.GenUUID() }
