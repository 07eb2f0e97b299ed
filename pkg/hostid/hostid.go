// Package hostid resolves the origin and process identifiers that make IDs
// from different generators distinguishable.
//
// Explicit values win over the environment, and the environment wins over
// host introspection. Introspection hashes the host's network interface
// descriptions, which collides easily between hosts with identical network
// setups (containers sharing a namespace image, for instance), so it is only
// used when explicitly allowed.
package hostid

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/spaolacci/murmur3"
)

const (
	EnvOriginID  = "IDGEN_ORIGIN_ID"
	EnvProcessID = "IDGEN_PROCESS_ID"
)

var (
	ErrNoInterfaces = errors.New("no network interfaces")
	ErrUnresolved   = errors.New("identifier not resolved")
)

// Source names where a resolved value came from.
type Source string

const (
	SourceExplicit      Source = "explicit"
	SourceEnv           Source = "env"
	SourceIntrospection Source = "introspection"
)

// ResolveError reports a failure to resolve one identifier.
type ResolveError struct {
	Field  string
	Source Source
	Err    error
}

func (e *ResolveError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("resolve %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("resolve %s from %s: %v", e.Field, e.Source, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// Identity is a resolved (origin, process) pair, not yet masked to the
// generator's field widths.
type Identity struct {
	OriginID      int64
	OriginSource  Source
	ProcessID     int64
	ProcessSource Source
}

// Resolver resolves an Identity.
type Resolver struct {
	OriginID  *int64
	ProcessID *int64

	// AllowIntrospection enables the network interface and PID fallbacks.
	AllowIntrospection bool

	LookupEnv  func(string) (string, bool)
	Interfaces func() ([]net.Interface, error)
	Getpid     func() int
}

func (r *Resolver) Resolve() (Identity, error) {
	var id Identity
	var err error

	id.OriginID, id.OriginSource, err = r.resolveOne("origin_id", r.OriginID, EnvOriginID, r.introspectOrigin)
	if err != nil {
		return Identity{}, err
	}
	id.ProcessID, id.ProcessSource, err = r.resolveOne("process_id", r.ProcessID, EnvProcessID, r.introspectProcess)
	if err != nil {
		return Identity{}, err
	}
	return id, nil
}

func (r *Resolver) resolveOne(field string, explicit *int64, env string, introspect func() (int64, error)) (int64, Source, error) {
	if explicit != nil {
		return *explicit, SourceExplicit, nil
	}

	lookup := r.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if raw, ok := lookup(env); ok && strings.TrimSpace(raw) != "" {
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return 0, "", &ResolveError{Field: field, Source: SourceEnv, Err: fmt.Errorf("%s: %w", env, err)}
		}
		return v, SourceEnv, nil
	}

	if !r.AllowIntrospection {
		return 0, "", &ResolveError{Field: field, Err: ErrUnresolved}
	}
	v, err := introspect()
	if err != nil {
		return 0, "", &ResolveError{Field: field, Source: SourceIntrospection, Err: err}
	}
	return v, SourceIntrospection, nil
}

func (r *Resolver) introspectOrigin() (int64, error) {
	list := r.Interfaces
	if list == nil {
		list = net.Interfaces
	}
	ifaces, err := list()
	if err != nil {
		return 0, fmt.Errorf("failed to list interfaces: %w", err)
	}
	h, err := HashInterfaces(ifaces)
	if err != nil {
		return 0, err
	}
	return int64(h), nil
}

func (r *Resolver) introspectProcess() (int64, error) {
	getpid := r.Getpid
	if getpid == nil {
		getpid = os.Getpid
	}
	return ProcessID(getpid)
}

// HashInterfaces hashes the descriptions of ifaces into a signed 32-bit value.
// The result may be negative; the generator masks it.
func HashInterfaces(ifaces []net.Interface) (int32, error) {
	if len(ifaces) == 0 {
		return 0, ErrNoInterfaces
	}

	var sb strings.Builder
	for _, iface := range ifaces {
		sb.WriteString(describe(iface))
	}
	return int32(murmur3.Sum32([]byte(sb.String()))), nil
}

func describe(iface net.Interface) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "name:%s (index %d) mtu %d", iface.Name, iface.Index, iface.MTU)
	if len(iface.HardwareAddr) > 0 {
		sb.WriteString(" hw ")
		sb.WriteString(iface.HardwareAddr.String())
	}
	sb.WriteString(" flags ")
	sb.WriteString(iface.Flags.String())

	// Loopback-only hosts still have addresses worth mixing in.
	if addrs, err := iface.Addrs(); err == nil {
		for _, a := range addrs {
			sb.WriteString(" ")
			sb.WriteString(a.String())
		}
	}
	sb.WriteString(";")
	return sb.String()
}

// ProcessID returns the current process ID as reported by getpid.
func ProcessID(getpid func() int) (int64, error) {
	pid := getpid()
	if pid <= 0 {
		return 0, fmt.Errorf("invalid process id %d", pid)
	}
	return int64(pid), nil
}
