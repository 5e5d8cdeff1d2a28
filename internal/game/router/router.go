package router

import (
	"container/heap"
	"math"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/gommon/log"

	"taxi-simulator/internal/game/topology"
	"taxi-simulator/pkg/types"
)

const DefaultCacheSize = 256

type routeKey struct {
	start, goal types.NodeID
}

// Router computes shortest taxi routes over an immutable topology. Since
// the graph never changes after construction, results are cached.
type Router struct {
	graph *topology.Graph
	cache *lru.Cache[routeKey, types.Route]
}

// New returns a router over g. A cacheSize <= 0 disables caching.
func New(g *topology.Graph, cacheSize int) *Router {
	r := &Router{graph: g}
	if cacheSize > 0 {
		c, err := lru.New[routeKey, types.Route](cacheSize)
		if err != nil {
			log.Warnf("route cache disabled: %v", err)
		} else {
			r.cache = c
		}
	}
	return r
}

// ShortestPath returns the minimum-length route from start to goal,
// inclusive of both. ok is false if either node is unknown or goal is
// unreachable. Equal-cost frontier entries are expanded in node-id order,
// so the result is reproducible.
func (r *Router) ShortestPath(start, goal types.NodeID) (route types.Route, ok bool) {
	if !r.graph.Has(start) || !r.graph.Has(goal) {
		return nil, false
	}

	key := routeKey{start, goal}
	if r.cache != nil {
		if cached, hit := r.cache.Get(key); hit {
			return cached.Clone(), true
		}
	}

	route = r.dijkstra(start, goal)
	if route == nil {
		return nil, false
	}
	if r.cache != nil {
		r.cache.Add(key, route.Clone())
	}
	return route, true
}

func (r *Router) dijkstra(start, goal types.NodeID) types.Route {
	dist := map[types.NodeID]float64{start: 0}
	prev := make(map[types.NodeID]types.NodeID)
	pq := &frontier{{node: start, cost: 0}}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(item)
		if cur.node == goal {
			return walkBack(prev, start, goal)
		}
		if best, ok := dist[cur.node]; ok && cur.cost > best {
			// Stale entry; a cheaper one was already expanded.
			continue
		}

		nbrs, _ := r.graph.Neighbors(cur.node)
		for _, nxt := range nbrs {
			w, err := r.graph.Distance(cur.node, nxt)
			if err != nil {
				continue
			}
			cost := cur.cost + w
			if best, ok := dist[nxt]; !ok || cost < best {
				dist[nxt] = cost
				prev[nxt] = cur.node
				heap.Push(pq, item{node: nxt, cost: cost})
			}
		}
	}
	return nil
}

func walkBack(prev map[types.NodeID]types.NodeID, start, goal types.NodeID) types.Route {
	route := types.Route{goal}
	for n := goal; n != start; {
		n = prev[n]
		route = append(route, n)
	}
	slices.Reverse(route)
	return route
}

// Cost is the summed Euclidean length of a route's edges. Consecutive
// nodes need not be adjacent.
func (r *Router) Cost(route types.Route) (float64, error) {
	total := 0.0
	for i := 0; i+1 < len(route); i++ {
		d, err := r.graph.Distance(route[i], route[i+1])
		if err != nil {
			return math.NaN(), err
		}
		total += d
	}
	return total, nil
}

type item struct {
	node types.NodeID
	cost float64
}

// frontier is a min-heap on cost, then node id.
type frontier []item

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].cost != f[j].cost {
		return f[i].cost < f[j].cost
	}
	return f[i].node < f[j].node
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(item)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	it := old[n-1]
	*f = old[:n-1]
	return it
}
