package server

import (
	"errors"
	"sort"

	"github.com/rs/zerolog"

	"github.com/merklekv/merklekv/internal/store"
	"github.com/merklekv/merklekv/internal/trie"
	"github.com/merklekv/merklekv/internal/wire"
)

// dispatcher interprets decoded requests against the store. Dispatch is
// stateless per request; all state lives in the store and the session
// manager.
type dispatcher struct {
	store    *store.Store
	sessions *sessionManager
	log      zerolog.Logger
}

func newDispatcher(st *store.Store, log zerolog.Logger) *dispatcher {
	return &dispatcher{
		store:    st,
		sessions: newSessionManager(st),
		log:      log,
	}
}

// dispatch produces exactly one response per request. Store faults surface
// as error responses, never as a dropped connection.
func (d *dispatcher) dispatch(req *wire.Request) *wire.Response {
	switch c := req.Choice().(type) {
	case wire.RootRequest:
		return wire.NewResponse(wire.RootResponse{Root: d.store.Root()})
	case wire.GetRequest:
		return d.handleGet(c)
	case wire.PrefetchRequest:
		d.sessions.Current().WarmUp(trie.DerivePath(c.Key))
		return wire.NewResponse(wire.PrefetchResponse{})
	case wire.UpdateRequest:
		return d.handleUpdate(c)
	case wire.CloseRequest:
		// Acknowledged only; the client ends the connection by closing it.
		return wire.NewResponse(wire.CloseResponse{})
	default:
		d.log.Error().Type("request", c).Msg("unhandled request variant")
		return wire.NewErrorResponse(wire.ErrCodeStore)
	}
}

func (d *dispatcher) handleGet(req wire.GetRequest) *wire.Response {
	value, err := d.sessions.Current().Read(trie.DerivePath(req.Key))
	if errors.Is(err, store.ErrNotFound) {
		return wire.NewErrorResponse(wire.ErrCodeNotFound)
	}
	if err != nil {
		d.log.Error().Err(err).Msg("read failed")
		return wire.NewErrorResponse(wire.ErrCodeStore)
	}
	return wire.NewResponse(wire.GetResponse{Value: value})
}

func (d *dispatcher) handleUpdate(req wire.UpdateRequest) *wire.Response {
	items := make([]store.BatchItem, 0, len(req.Items))
	for _, item := range req.Items {
		batchItem := store.BatchItem{Path: trie.DerivePath(item.Key)}
		if len(item.Value) != 0 {
			batchItem.Value = item.Value
		}
		items = append(items, batchItem)
	}

	// The store requires the batch sorted ascending by path.
	sort.Slice(items, func(i, j int) bool {
		return items[i].Path.Compare(items[j].Path) < 0
	})
	for i := 1; i < len(items); i++ {
		if items[i-1].Path == items[i].Path {
			return wire.NewErrorResponse(wire.ErrCodeDuplicateKey)
		}
	}

	root, err := d.sessions.CommitAndReplace(items)
	if err != nil {
		d.log.Error().Err(err).Msg("commit failed")
		return wire.NewErrorResponse(wire.ErrCodeStore)
	}
	return wire.NewResponse(wire.UpdateResponse{Root: root})
}
