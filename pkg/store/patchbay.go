package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type PatchbayClient struct {
	ID       int32    `yaml:"id"`
	Name     string   `yaml:"name"`
	Icon     int32    `yaml:"icon"`
	PluginID PluginID `yaml:"pluginId"`
}

type PatchbayPort struct {
	ClientID int32  `yaml:"clientId"`
	PortID   int32  `yaml:"portId"`
	Hints    int32  `yaml:"hints"`
	Group    int32  `yaml:"group"`
	Name     string `yaml:"name"`
}

type PatchbayConnection struct {
	ID     int32 `yaml:"id"`
	GroupA int32 `yaml:"groupA"`
	PortA  int32 `yaml:"portA"`
	GroupB int32 `yaml:"groupB"`
	PortB  int32 `yaml:"portB"`
}

// Patchbay is a sorted export of the routing graph.
type Patchbay struct {
	Clients     []PatchbayClient     `yaml:"clients,omitempty"`
	Ports       []PatchbayPort       `yaml:"ports,omitempty"`
	Connections []PatchbayConnection `yaml:"connections,omitempty"`
}

type portKey struct {
	client int32
	port   int32
}

type patchbay struct {
	clients     map[int32]PatchbayClient
	ports       map[portKey]PatchbayPort
	connections map[int32]PatchbayConnection
}

func newPatchbay() patchbay {
	return patchbay{
		clients:     make(map[int32]PatchbayClient),
		ports:       make(map[portKey]PatchbayPort),
		connections: make(map[int32]PatchbayConnection),
	}
}

func (pb patchbay) export() Patchbay {
	var out Patchbay
	for _, c := range pb.clients {
		out.Clients = append(out.Clients, c)
	}
	for _, p := range pb.ports {
		out.Ports = append(out.Ports, p)
	}
	for _, c := range pb.connections {
		out.Connections = append(out.Connections, c)
	}
	sort.Slice(out.Clients, func(i, j int) bool { return out.Clients[i].ID < out.Clients[j].ID })
	sort.Slice(out.Ports, func(i, j int) bool {
		if out.Ports[i].ClientID != out.Ports[j].ClientID {
			return out.Ports[i].ClientID < out.Ports[j].ClientID
		}
		return out.Ports[i].PortID < out.Ports[j].PortID
	})
	sort.Slice(out.Connections, func(i, j int) bool { return out.Connections[i].ID < out.Connections[j].ID })
	return out
}

// pluginRemoved mirrors plugin compaction onto client ownership.
func (pb patchbay) pluginRemoved(id PluginID) {
	for k, c := range pb.clients {
		switch {
		case c.PluginID == id:
			c.PluginID = -1
		case c.PluginID > id:
			c.PluginID--
		default:
			continue
		}
		pb.clients[k] = c
	}
}

func (s *Store) Patchbay() Patchbay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.patchbay.export()
}

func (s *Store) AddPatchbayClient(c PatchbayClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patchbay.clients[c.ID] = c
}

// RemovePatchbayClient drops the client and every port it owns.
func (s *Store) RemovePatchbayClient(id int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.patchbay.clients, id)
	for k := range s.patchbay.ports {
		if k.client == id {
			delete(s.patchbay.ports, k)
		}
	}
}

func (s *Store) RenamePatchbayClient(id int32, name string) bool {
	return s.UpdatePatchbayClient(id, func(c *PatchbayClient) { c.Name = name })
}

func (s *Store) UpdatePatchbayClient(id int32, fn func(c *PatchbayClient)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.patchbay.clients[id]
	if !ok {
		return false
	}
	fn(&c)
	s.patchbay.clients[id] = c
	return true
}

// SetPatchbayPort adds or replaces a port.
func (s *Store) SetPatchbayPort(p PatchbayPort) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patchbay.ports[portKey{p.ClientID, p.PortID}] = p
}

func (s *Store) RemovePatchbayPort(clientID, portID int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.patchbay.ports, portKey{clientID, portID})
}

func (s *Store) AddPatchbayConnection(c PatchbayConnection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patchbay.connections[c.ID] = c
}

func (s *Store) RemovePatchbayConnection(id int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.patchbay.connections, id)
}

// ParseConnection decodes the "groupA:portA:groupB:portB" form the engine
// uses for connection endpoints.
func ParseConnection(id int32, text string) (PatchbayConnection, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 4 {
		return PatchbayConnection{}, fmt.Errorf("connection %d: want 4 fields, got %q", id, text)
	}

	var v [4]int32
	for i, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return PatchbayConnection{}, fmt.Errorf("connection %d: field %d: %w", id, i, err)
		}
		v[i] = int32(n)
	}
	return PatchbayConnection{ID: id, GroupA: v[0], PortA: v[1], GroupB: v[2], PortB: v[3]}, nil
}
