// Copyright 2026 The NetPlumber Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package netcfg

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/arc/v2"
	"golang.org/x/sync/errgroup"

	"github.com/netplumber/netplumber/pkg/hs"
	"github.com/netplumber/netplumber/pkg/log"
	"github.com/netplumber/netplumber/pkg/plumber"
	"github.com/netplumber/netplumber/pkg/private/serrors"
)

// DefaultCacheSize is the default number of parsed header arrays kept by a
// loader.
const DefaultCacheSize = 4096

// Summary counts what a loader applied to the plumber.
type Summary struct {
	Tables int `json:"tables" yaml:"tables"`
	Rules  int `json:"rules" yaml:"rules"`
	// Filtered counts rules and sources disjoint from the header filter.
	Filtered int `json:"filtered" yaml:"filtered"`
	// Unsupported counts rules with an action other than fwd and rw.
	Unsupported   int           `json:"unsupported" yaml:"unsupported"`
	Links         int           `json:"links" yaml:"links"`
	Sources       int           `json:"sources" yaml:"sources"`
	Probes        int           `json:"probes" yaml:"probes"`
	Slices        int           `json:"slices" yaml:"slices"`
	SliceOverlaps int           `json:"slice_overlaps" yaml:"slice_overlaps"`
	Unknown       int           `json:"unknown_commands" yaml:"unknown_commands"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
}

// Option configures a Loader.
type Option func(*Loader)

// WithFilter skips every rule and source disjoint from the filter. Matches of
// the remaining rules and sources are restricted to the filter.
func WithFilter(filter hs.Array) Option {
	return func(l *Loader) { l.filter = filter }
}

// WithPolicy loads the policy from path instead of the policy.json of the
// network directory.
func WithPolicy(path string) Option {
	return func(l *Loader) { l.policy = path }
}

// WithCacheSize sets the size of the header array cache.
func WithCacheSize(n int) Option {
	return func(l *Loader) { l.cacheSize = n }
}

// WithWorkers sets the number of table files parsed concurrently.
func WithWorkers(n int) Option {
	return func(l *Loader) { l.workers = n }
}

// WithProbeCallback sets the callback of every probe added by the policy.
func WithProbeCallback(cb plumber.ProbeCallback) Option {
	return func(l *Loader) { l.callback = cb }
}

// Loader applies network descriptions to a plumber. A Loader is not safe for
// concurrent use.
type Loader struct {
	plumber   *plumber.Plumber
	filter    hs.Array
	policy    string
	cacheSize int
	workers   int
	callback  plumber.ProbeCallback

	cache   *arc.ARCCache[string, hs.Array]
	rules   map[uint64]plumber.NodeID
	sources map[uint64]plumber.NodeID
	probes  map[uint64]plumber.NodeID
	summary Summary
}

// New creates a loader for p.
func New(p *plumber.Plumber, opts ...Option) (*Loader, error) {
	l := &Loader{
		plumber:   p,
		cacheSize: DefaultCacheSize,
		workers:   runtime.GOMAXPROCS(0),
		rules:     make(map[uint64]plumber.NodeID),
		sources:   make(map[uint64]plumber.NodeID),
		probes:    make(map[uint64]plumber.NodeID),
	}
	for _, opt := range opts {
		opt(l)
	}
	if n := l.filter.Len(); n != 0 && n != p.Length() {
		return nil, serrors.New("filter length mismatch", "expected", p.Length(), "actual", n)
	}
	if l.workers <= 0 {
		l.workers = 1
	}
	cache, err := arc.NewARC[string, hs.Array](l.cacheSize)
	if err != nil {
		return nil, serrors.Wrap("creating header cache", err)
	}
	l.cache = cache
	return l, nil
}

// Summary returns what the loader applied so far.
func (l *Loader) Summary() Summary {
	return l.summary
}

// Rule returns the node of the rule with the given file id.
func (l *Loader) Rule(id uint64) (plumber.NodeID, bool) {
	n, ok := l.rules[id]
	return n, ok
}

// Source returns the node of the source with the given policy id.
func (l *Loader) Source(id uint64) (plumber.NodeID, bool) {
	n, ok := l.sources[id]
	return n, ok
}

// Probe returns the node of the probe with the given policy id.
func (l *Loader) Probe(id uint64) (plumber.NodeID, bool) {
	n, ok := l.probes[id]
	return n, ok
}

// Probes returns the policy ids of the loaded probes in ascending order.
func (l *Loader) Probes() []uint64 {
	ids := make([]uint64, 0, len(l.probes))
	for id := range l.probes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// LoadDir loads the network directory dir: the slices if slicing is enabled,
// then the topology, the tables and finally the policy if there is one.
func (l *Loader) LoadDir(ctx context.Context, dir string) error {
	span, ctx, logger := log.StartSpan(ctx, "netcfg.load_dir", "dir", dir)
	defer span.Finish()
	start := time.Now()

	if l.plumber.Slicing() {
		if err := l.LoadSlices(ctx, dir); err != nil {
			return err
		}
	}
	if err := l.LoadTopology(ctx, filepath.Join(dir, TopologyFile)); err != nil {
		return err
	}
	if err := l.LoadTables(ctx, dir); err != nil {
		return err
	}
	policy := l.policy
	if policy == "" {
		policy = filepath.Join(dir, PolicyFile)
		if _, err := os.Stat(policy); errors.Is(err, fs.ErrNotExist) {
			policy = ""
		}
	}
	if policy != "" {
		if err := l.LoadPolicy(ctx, policy); err != nil {
			return err
		}
	}
	l.summary.Duration += time.Since(start)
	logger.Info("Network loaded", "tables", l.summary.Tables,
		"rules", l.summary.Rules, "links", l.summary.Links, "duration", time.Since(start))
	return nil
}

// LoadTopology loads a topology file.
func (l *Loader) LoadTopology(ctx context.Context, path string) error {
	var topo Topology
	if err := readJSON(path, &topo); err != nil {
		return err
	}
	for _, link := range topo.Links {
		l.plumber.AddLink(link.Src, link.Dst)
	}
	l.summary.Links += len(topo.Links)
	log.FromCtx(ctx).Debug("Topology loaded", "path", path, "links", len(topo.Links))
	return nil
}

type parsedRule struct {
	id    uint64
	index uint32
	in    plumber.Ports
	out   plumber.Ports
	match hs.Array
	mask  hs.Array
	rw    hs.Array
}

type parsedTable struct {
	path        string
	id          plumber.TableID
	ports       plumber.Ports
	rules       []parsedRule
	filtered    int
	unsupported int
}

// LoadTables loads every table file of dir. The files are parsed concurrently
// and applied in the order of their names.
func (l *Loader) LoadTables(ctx context.Context, dir string) error {
	span, ctx, logger := log.StartSpan(ctx, "netcfg.load_tables")
	defer span.Finish()

	paths, err := tableFiles(dir)
	if err != nil {
		return err
	}
	tables := make([]parsedTable, len(paths))
	g, errCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, path := range paths {
		g.Go(func() error {
			defer log.HandlePanic()
			if err := errCtx.Err(); err != nil {
				return err
			}
			t, err := l.parseTable(path)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, t := range tables {
		if err := l.applyTable(t); err != nil {
			return err
		}
		logger.Debug("Table loaded", "path", t.path, "table", t.id, "rules", len(t.rules),
			"filtered", t.filtered, "unsupported", t.unsupported)
	}
	span.SetTag("tables", len(tables))
	return nil
}

func tableFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, serrors.Wrap("reading network directory", err, "dir", dir)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, suffix := range tableSuffixes {
			if strings.HasSuffix(e.Name(), suffix) {
				paths = append(paths, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	return paths, nil
}

func (l *Loader) parseTable(path string) (parsedTable, error) {
	var raw Table
	if err := readJSON(path, &raw); err != nil {
		return parsedTable{}, err
	}
	t := parsedTable{
		path:  path,
		id:    plumber.TableID(raw.ID),
		ports: plumber.Ports(raw.Ports),
		rules: make([]parsedRule, 0, len(raw.Rules)),
	}
	for _, r := range raw.Rules {
		switch r.Action {
		case ActionForward, ActionRewrite:
		default:
			t.unsupported++
			continue
		}
		pr, ok, err := l.parseRule(r)
		if err != nil {
			return parsedTable{}, serrors.Wrap("parsing rule", err, "path", path, "rule", r.ID)
		}
		if !ok {
			t.filtered++
			continue
		}
		t.rules = append(t.rules, pr)
	}
	return t, nil
}

func (l *Loader) parseRule(r Rule) (parsedRule, bool, error) {
	rewrite := r.Mask != "" || r.Rewrite != ""
	switch {
	case r.Action == ActionForward && rewrite:
		return parsedRule{}, false, serrors.New("forward rule with mask or rewrite")
	case r.Action == ActionRewrite && (r.Mask == "" || r.Rewrite == ""):
		return parsedRule{}, false, serrors.New("rewrite rule without mask and rewrite")
	}
	match, err := l.array(r.Match)
	if err != nil {
		return parsedRule{}, false, err
	}
	if match.Len() == 0 {
		return parsedRule{}, false, serrors.New("rule without match")
	}
	if l.filter.Len() != 0 {
		var ok bool
		if match, ok = match.Intersect(l.filter); !ok {
			return parsedRule{}, false, nil
		}
	}
	mask, err := l.array(r.Mask)
	if err != nil {
		return parsedRule{}, false, err
	}
	rw, err := l.array(r.Rewrite)
	if err != nil {
		return parsedRule{}, false, err
	}
	return parsedRule{
		id:    r.ID,
		index: r.Index(),
		in:    plumber.Ports(r.InPorts),
		out:   plumber.Ports(r.OutPorts),
		match: match,
		mask:  mask,
		rw:    rw,
	}, true, nil
}

func (l *Loader) applyTable(t parsedTable) error {
	if err := l.plumber.AddTable(t.id, t.ports); err != nil {
		return serrors.Wrap("adding table", err, "path", t.path)
	}
	for _, r := range t.rules {
		id, err := l.plumber.AddRule(t.id, r.index, r.in, r.out, r.match, r.mask, r.rw)
		if err != nil {
			return serrors.Wrap("adding rule", err, "path", t.path, "rule", r.id)
		}
		l.rules[r.id] = id
	}
	l.summary.Tables++
	l.summary.Rules += len(t.rules)
	l.summary.Filtered += t.filtered
	l.summary.Unsupported += t.unsupported
	return nil
}

// array parses a header array of the plumber length. The empty string is the
// zero array.
func (l *Loader) array(s string) (hs.Array, error) {
	if s == "" {
		return hs.Array{}, nil
	}
	if a, ok := l.cache.Get(s); ok {
		return a, nil
	}
	a, err := hs.ParseLen(s, l.plumber.Length())
	if err != nil {
		return hs.Array{}, err
	}
	l.cache.Add(s, a)
	return a, nil
}

// set builds a header set from a spec. Specs shorter than the plumber length
// are enlarged.
func (l *Loader) set(spec hs.Spec) (hs.Set, error) {
	if n := spec.Len(); n > l.plumber.Length() {
		return nil, serrors.New("header longer than network", "expected", l.plumber.Length(),
			"actual", n)
	}
	return spec.Set(l.plumber.Backend(), l.plumber.Length()), nil
}

// LoadPolicy loads a policy file.
func (l *Loader) LoadPolicy(ctx context.Context, path string) error {
	span, _, logger := log.StartSpan(ctx, "netcfg.load_policy", "policy", path)
	defer span.Finish()

	var policy Policy
	if err := readJSON(path, &policy); err != nil {
		return err
	}
	for i, c := range policy.Commands {
		if err := l.apply(logger, c); err != nil {
			return serrors.Wrap("applying policy command", err, "path", path,
				"command", i, "method", c.Method)
		}
	}
	logger.Debug("Policy loaded", "commands", len(policy.Commands))
	return nil
}

func (l *Loader) apply(logger log.Logger, c Command) error {
	switch c.Method {
	case MethodAddSource:
		var params SourceParams
		if err := json.Unmarshal(c.Params, &params); err != nil {
			return err
		}
		return l.addSource(params)
	case MethodAddSourceProbe:
		var params ProbeParams
		if err := json.Unmarshal(c.Params, &params); err != nil {
			return err
		}
		return l.addProbe(params)
	case MethodAddLink:
		var params LinkParams
		if err := json.Unmarshal(c.Params, &params); err != nil {
			return err
		}
		l.plumber.AddLink(params.FromPort, params.ToPort)
		l.summary.Links++
		return nil
	default:
		l.summary.Unknown++
		logger.Error("Unknown policy command", "method", c.Method)
		return nil
	}
}

func (l *Loader) addSource(params SourceParams) error {
	set, err := l.set(params.HS)
	if err != nil {
		return err
	}
	if l.filter.Len() != 0 {
		set = set.IntersectArray(l.filter).Compact()
		if set.IsEmpty() {
			l.summary.Filtered++
			return nil
		}
	}
	l.sources[params.ID] = l.plumber.AddSource(set, plumber.Ports(params.Ports))
	l.summary.Sources++
	return nil
}

func (l *Loader) addProbe(params ProbeParams) error {
	match, err := l.array(params.Match)
	if err != nil {
		return err
	}
	mode := plumber.Existential
	if params.Mode != "" {
		if err := mode.UnmarshalText([]byte(strings.ToLower(params.Mode))); err != nil {
			return serrors.Wrap("parsing probe", err, "probe", params.ID)
		}
	}
	l.probes[params.ID] = l.plumber.AddSourceProbe(plumber.ProbeSpec{
		Ports:    plumber.Ports(params.Ports),
		Mode:     mode,
		Match:    match,
		Filter:   params.Filter.Condition,
		Test:     params.Test.Condition,
		Callback: l.callback,
		Data:     params.ID,
	})
	l.summary.Probes++
	return nil
}

// LoadSlices loads slices.json and slice_matrix.csv of dir. Both files are
// optional. Overlapping slices are reported to the event handler of the
// plumber and skipped.
func (l *Loader) LoadSlices(ctx context.Context, dir string) error {
	logger := log.FromCtx(ctx)
	path := filepath.Join(dir, SlicesFile)
	var defs Slices
	switch err := readJSON(path, &defs); {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("No slice definition, using the free space only", "path", path)
	case err != nil:
		return err
	}
	for _, s := range defs.Slices {
		set, err := l.set(s.Space)
		if err != nil {
			return serrors.Wrap("parsing slice", err, "path", path, "slice", s.ID)
		}
		switch err := l.plumber.AddSlice(s.ID, set); {
		case errors.Is(err, plumber.ErrSliceOverlap):
			l.summary.SliceOverlaps++
			logger.Info("Slice overlaps", "slice", s.ID, "err", err)
		case err != nil:
			return serrors.Wrap("adding slice", err, "path", path, "slice", s.ID)
		default:
			l.summary.Slices++
		}
	}

	path = filepath.Join(dir, SliceMatrixFile)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return serrors.Wrap("opening slice matrix", err, "path", path)
	}
	defer f.Close()
	if err := l.plumber.AddSliceMatrix(f); err != nil {
		return serrors.Wrap("adding slice matrix", err, "path", path)
	}
	return nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return serrors.Wrap("reading file", err, "path", path)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return serrors.Wrap("decoding file", err, "path", path)
	}
	return nil
}
