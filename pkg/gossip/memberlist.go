package gossip

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/anthanhphan/gosdk/logger"
	"github.com/hashicorp/memberlist"
)

// Peer is a generator node seen through gossip.
type Peer struct {
	Name      string `json:"name"`
	Addr      string `json:"addr"`
	OriginID  int64  `json:"origin_id"`
	ProcessID int64  `json:"process_id"`
}

// Config configures a Membership.
type Config struct {
	NodeName  string
	BindAddr  string
	BindPort  int
	GRPCPort  int
	OriginID  int64
	ProcessID int64
}

// Membership advertises the local (origin, process) pair to the cluster and
// tracks peers whose pair collides with it. It only observes; resolving a
// collision is left to the operator.
type Membership struct {
	list *memberlist.Memberlist
	conf *memberlist.Config

	nodeName  string
	addr      string
	grpcPort  int
	originID  int64
	processID int64

	mu    sync.RWMutex
	peers map[string]Peer
}

var _ memberlist.Delegate = (*Membership)(nil)
var _ memberlist.EventDelegate = (*Membership)(nil)

// NewMembership creates the memberlist and starts listening for gossip.
func NewMembership(cfg Config) (*Membership, error) {
	config := memberlist.DefaultLANConfig()
	config.Name = cfg.NodeName
	config.BindAddr = cfg.BindAddr
	config.BindPort = cfg.BindPort
	config.AdvertisePort = cfg.BindPort

	config.LogOutput = io.Discard

	m := &Membership{
		conf:      config,
		nodeName:  cfg.NodeName,
		addr:      cfg.BindAddr,
		grpcPort:  cfg.GRPCPort,
		originID:  cfg.OriginID,
		processID: cfg.ProcessID,
		peers:     make(map[string]Peer),
	}

	config.Events = m
	config.Delegate = m

	list, err := memberlist.Create(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create memberlist: %w", err)
	}
	m.list = list

	return m, nil
}

// Join joins the cluster using seed nodes.
func (m *Membership) Join(seeds []string) error {
	if len(seeds) > 0 {
		_, err := m.list.Join(seeds)
		if err != nil {
			return fmt.Errorf("failed to join cluster: %w", err)
		}
	}
	return nil
}

// Leave leaves the cluster.
func (m *Membership) Leave() error {
	if err := m.list.Leave(time.Second * 5); err != nil {
		return err
	}
	return m.list.Shutdown()
}

// NodeMeta returns the local node metadata.
func (m *Membership) NodeMeta(limit int) []byte {
	data, err := json.Marshal(nodeMeta{
		OriginID:  m.originID,
		ProcessID: m.processID,
		GRPCPort:  m.grpcPort,
	})
	if err != nil {
		logger.Warnw("failed to marshal gossip node meta", "error", err.Error())
		return nil
	}
	if len(data) > limit && limit > 0 {
		logger.Warnw("gossip node meta exceeds limit", "size", len(data), "limit", limit)
		return nil
	}
	return data
}

func (m *Membership) NotifyMsg([]byte)                           {}
func (m *Membership) GetBroadcasts(overhead, limit int) [][]byte { return nil }
func (m *Membership) LocalState(join bool) []byte                { return nil }
func (m *Membership) MergeRemoteState(buf []byte, join bool)     {}

// Members returns the known peers, excluding the local node.
func (m *Membership) Members() []Peer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	peers := make([]Peer, 0, len(m.peers))
	for _, p := range m.peers {
		peers = append(peers, p)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i].Name < peers[j].Name })
	return peers
}

// Conflicts returns the peers advertising the same (origin, process) pair as
// the local node. IDs from those peers may collide with ours.
func (m *Membership) Conflicts() []Peer {
	var out []Peer
	for _, p := range m.Members() {
		if m.collides(p) {
			out = append(out, p)
		}
	}
	return out
}

// LocalNode returns the local node info.
func (m *Membership) LocalNode() Peer {
	addr := m.addr
	if m.list != nil && m.list.LocalNode() != nil {
		addr = m.list.LocalNode().Addr.String()
	}
	if m.grpcPort > 0 {
		addr = net.JoinHostPort(addr, strconv.Itoa(m.grpcPort))
	}
	return Peer{
		Name:      m.nodeName,
		Addr:      addr,
		OriginID:  m.originID,
		ProcessID: m.processID,
	}
}

// NotifyJoin is invoked when a node joins.
func (m *Membership) NotifyJoin(node *memberlist.Node) {
	if node.Name == m.nodeName {
		return
	}

	meta, ok := decodeMeta(node.Meta)
	if !ok {
		return
	}
	addr := node.Addr.String()
	if meta.GRPCPort > 0 {
		addr = net.JoinHostPort(addr, strconv.Itoa(meta.GRPCPort))
	} else {
		addr = net.JoinHostPort(addr, strconv.Itoa(int(node.Port)))
	}
	p := Peer{
		Name:      node.Name,
		Addr:      addr,
		OriginID:  meta.OriginID,
		ProcessID: meta.ProcessID,
	}

	m.mu.Lock()
	if m.peers == nil {
		m.peers = make(map[string]Peer)
	}
	m.peers[p.Name] = p
	m.mu.Unlock()

	if m.collides(p) {
		logger.Errorw("Peer advertises the same origin/process pair, IDs may collide",
			"peer", p.Name, "addr", p.Addr, "origin_id", p.OriginID, "process_id", p.ProcessID)
		return
	}
	logger.Infow("Node joined", "id", p.Name, "addr", p.Addr, "origin_id", p.OriginID, "process_id", p.ProcessID)
}

// NotifyLeave is invoked when a node leaves.
func (m *Membership) NotifyLeave(node *memberlist.Node) {
	logger.Infow("Node left", "id", node.Name)
	m.mu.Lock()
	delete(m.peers, node.Name)
	m.mu.Unlock()
}

// NotifyUpdate is invoked when a node is updated.
func (m *Membership) NotifyUpdate(node *memberlist.Node) {
	m.NotifyJoin(node)
}

func (m *Membership) collides(p Peer) bool {
	return p.Name != m.nodeName && p.OriginID == m.originID && p.ProcessID == m.processID
}

type nodeMeta struct {
	OriginID  int64 `json:"origin_id"`
	ProcessID int64 `json:"process_id"`
	GRPCPort  int   `json:"grpc_port"`
}

func decodeMeta(meta []byte) (nodeMeta, bool) {
	var m nodeMeta
	if len(meta) == 0 {
		return m, false
	}
	if err := json.Unmarshal(meta, &m); err != nil {
		logger.Warnw("failed to decode node metadata", "error", err.Error())
		return m, false
	}
	return m, true
}
