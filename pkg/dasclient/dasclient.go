// Package dasclient is the small public entry point embedding callers use
// instead of wiring internal/servicebus, internal/space and internal/drain
// themselves: Init and HostPort as top-level functions, and Query, Subst,
// CreateContext and EvolutionQuery as methods of the returned Client.
package dasclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/singnet/dasbus/internal/drain"
	"github.com/singnet/dasbus/internal/queryproxy"
	"github.com/singnet/dasbus/internal/servicebus"
	"github.com/singnet/dasbus/internal/space"
	"github.com/singnet/dasbus/internal/wireproto/properties"
)

// Client wraps one service bus and exposes the query operations a host
// symbolic runtime needs.
type Client struct {
	bus   *servicebus.ServiceBus
	space *space.DistributedAtomSpace
}

// Init brings up a process-wide service bus bound to host, joins the
// network through knownPeer, and returns a ready Client.
func Init(ctx context.Context, host, knownPeer string, portLower, portUpper uint16, contextName string) (*Client, error) {
	if err := servicebus.Init(ctx, host, knownPeer, portLower, portUpper); err != nil {
		return nil, err
	}
	sb, err := servicebus.Get()
	if err != nil {
		return nil, err
	}
	return &Client{bus: sb, space: space.New(sb, "das", contextName)}, nil
}

// Query runs a pattern-matching query and returns the collected bindings.
func (c *Client) Query(ctx context.Context, queryText string) ([]map[string]string, error) {
	return c.space.Query(ctx, queryText)
}

// Subst runs a query and textually substitutes its bindings into template.
func (c *Client) Subst(ctx context.Context, queryText, template string) ([]string, error) {
	return c.space.Subst(ctx, queryText, template)
}

// CreateContext issues a context-broker query and blocks until the remote
// peer reports the context is ready, returning its (name, key) pair.
func (c *Client) CreateContext(ctx context.Context, contextName string, params queryproxy.ContextBrokerParams) (name, key string, err error) {
	props := properties.NewDefault()
	proxy := queryproxy.NewContextBroker(contextName, props, params)
	if err := c.bus.IssueBusCommand(ctx, proxy.Base); err != nil {
		return "", "", fmt.Errorf("dasclient: issuing context broker query: %w", err)
	}
	name, key = drain.Context(proxy)
	return name, key, nil
}

// EvolutionQuery issues an evolutionary query, feeding candidate answers
// through runner's fitness scoring each poll, and returns the collected
// bindings.
func (c *Client) EvolutionQuery(ctx context.Context, contextName string, params queryproxy.EvolutionParams, runner queryproxy.FitnessRunner) ([]map[string]string, error) {
	props := properties.NewDefault()
	contextKey := queryproxy.HashContext(contextName)
	proxy, err := queryproxy.NewEvolution(contextName, contextKey, props, params, runner)
	if err != nil {
		return nil, err
	}
	if err := c.bus.IssueBusCommand(ctx, proxy.Base); err != nil {
		return nil, fmt.Errorf("dasclient: issuing evolution query: %w", err)
	}
	populateMetta := props.Get(properties.PopulateMettaMapping).AsBool()
	maxAnswers := props.Get(properties.MaxAnswers).AsUint64()
	return drain.Evolution(proxy, nil, populateMetta, maxAnswers)
}

// HostPort splits a "host:port" or "host:lower-upper" endpoint id, as CLI
// argument parsing needs for both the client and server endpoints.
func HostPort(id string) (host string, lower, upper uint16, err error) {
	id = strings.Trim(id, "()")
	idx := strings.LastIndex(id, ":")
	if idx < 0 {
		return "", 0, 0, fmt.Errorf("dasclient: %q is not a valid endpoint (eg. 0.0.0.0:42000-42999)", id)
	}
	host = id[:idx]
	portRange := id[idx+1:]
	if dash := strings.IndexByte(portRange, '-'); dash >= 0 {
		lo, err := strconv.ParseUint(portRange[:dash], 10, 16)
		if err != nil {
			return "", 0, 0, fmt.Errorf("dasclient: bad port range %q: %w", portRange, err)
		}
		hi, err := strconv.ParseUint(portRange[dash+1:], 10, 16)
		if err != nil {
			return "", 0, 0, fmt.Errorf("dasclient: bad port range %q: %w", portRange, err)
		}
		return host, uint16(lo), uint16(hi), nil
	}
	p, err := strconv.ParseUint(portRange, 10, 16)
	if err != nil {
		return "", 0, 0, fmt.Errorf("dasclient: bad port %q: %w", portRange, err)
	}
	return host, uint16(p), uint16(p), nil
}
