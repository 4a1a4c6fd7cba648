package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// Node types understood by Build.
const (
	TypeAction         = "action"
	TypeCondition      = "condition"
	TypeSequence       = "sequence"
	TypeSelector       = "selector"
	TypeParallel       = "parallel"
	TypeDecorator      = "decorator"
	TypeRepeater       = "repeater"
	TypeMonitor        = "monitor"
	TypeActiveSelector = "active_selector"
)

// Definition describes a tree as a flat set of named nodes. Nodes reference
// their children by name; Root names the entry point.
type Definition struct {
	Name  string          `json:"name,omitempty" yaml:"name,omitempty"`
	Root  string          `json:"root" yaml:"root"`
	Nodes map[string]Node `json:"nodes" yaml:"nodes"`
}

type Node struct {
	Type string `json:"type" yaml:"type"`

	// sequence, selector, parallel; low priority group of active_selector
	Children []string `json:"children,omitempty" yaml:"children,omitempty"`
	// decorator, repeater
	Child string `json:"child,omitempty" yaml:"child,omitempty"`
	// monitor
	Conditions string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Actions    string `json:"actions,omitempty" yaml:"actions,omitempty"`
	// active_selector
	High string `json:"high,omitempty" yaml:"high,omitempty"`

	// registry names of the leaf behind action and condition nodes
	Action    string `json:"action,omitempty" yaml:"action,omitempty"`
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`

	// invert, always_succeed, always_fail or retry
	Decorator string `json:"decorator,omitempty" yaml:"decorator,omitempty"`
	Times     int    `json:"times,omitempty" yaml:"times,omitempty"`

	// parallel policies: one, one_delayed, all
	Success string `json:"success,omitempty" yaml:"success,omitempty"`
	Failure string `json:"failure,omitempty" yaml:"failure,omitempty"`

	Params Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// References returns the names of the nodes n points at, in activation order.
func (n Node) References() []string {
	var refs []string
	switch n.Type {
	case TypeSequence, TypeSelector, TypeParallel:
		refs = append(refs, n.Children...)
	case TypeDecorator, TypeRepeater:
		refs = append(refs, n.Child)
	case TypeMonitor:
		refs = append(refs, n.Conditions, n.Actions)
	case TypeActiveSelector:
		refs = append(refs, n.High)
		refs = append(refs, n.Children...)
	}
	return refs
}

// LoadJSON loads a definition from a JSON reader.
func LoadJSON(r io.Reader) (*Definition, error) {
	var d Definition
	dec := json.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode tree definition: %w", err)
	}
	return &d, nil
}

// LoadYAML loads a definition from a YAML reader.
func LoadYAML(r io.Reader) (*Definition, error) {
	var d Definition
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode tree definition: %w", err)
	}
	return &d, nil
}

// LoadFile picks the decoder from the file extension. Anything that is not
// .json is read as YAML.
func LoadFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var d *Definition
	if strings.EqualFold(filepath.Ext(path), ".json") {
		d, err = LoadJSON(f)
	} else {
		d, err = LoadYAML(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if d.Name == "" {
		d.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return d, nil
}

// Validate checks that the definition describes a single tree: every
// reference resolves, no node has two parents and root reaches no cycle.
func (d *Definition) Validate() error {
	if d.Root == "" {
		return fmt.Errorf("%w: root is not set", ErrMissingNode)
	}
	if _, ok := d.Nodes[d.Root]; !ok {
		return fmt.Errorf("%w: root %q", ErrMissingNode, d.Root)
	}

	parents := make(map[string]string, len(d.Nodes))
	for _, name := range d.names() {
		n := d.Nodes[name]
		if err := n.check(); err != nil {
			return fmt.Errorf("node %q: %w", name, err)
		}
		for _, ref := range n.References() {
			if _, ok := d.Nodes[ref]; !ok {
				return fmt.Errorf("%w: %q referenced by %q", ErrMissingNode, ref, name)
			}
			if prev, ok := parents[ref]; ok {
				return fmt.Errorf("%w: %q under %q and %q", ErrSharedNode, ref, prev, name)
			}
			parents[ref] = name
		}
	}
	if p, ok := parents[d.Root]; ok {
		return fmt.Errorf("%w: root %q referenced by %q", ErrCycle, d.Root, p)
	}
	return d.walk(d.Root, make(map[string]bool))
}

// walk detects cycles below root. With single parents guaranteed, a node
// seen twice on one path is the only way to loop.
func (d *Definition) walk(name string, path map[string]bool) error {
	if path[name] {
		return fmt.Errorf("%w: through %q", ErrCycle, name)
	}
	path[name] = true
	for _, ref := range d.Nodes[name].References() {
		if err := d.walk(ref, path); err != nil {
			return err
		}
	}
	delete(path, name)
	return nil
}

func (n Node) check() error {
	switch n.Type {
	case TypeAction:
		if n.Action == "" {
			return fmt.Errorf("%w: action node without action", ErrInvalidParam)
		}
	case TypeCondition:
		if n.Condition == "" {
			return fmt.Errorf("%w: condition node without condition", ErrInvalidParam)
		}
	case TypeSequence, TypeSelector, TypeParallel:
	case TypeDecorator:
		if n.Child == "" {
			return fmt.Errorf("%w: decorator requires child", ErrMissingNode)
		}
	case TypeRepeater:
		if n.Child == "" {
			return fmt.Errorf("%w: repeater requires child", ErrMissingNode)
		}
		if n.Times < 0 {
			return fmt.Errorf("%w: times %d", ErrInvalidParam, n.Times)
		}
	case TypeMonitor:
		if n.Conditions == "" || n.Actions == "" {
			return fmt.Errorf("%w: monitor requires conditions and actions", ErrMissingNode)
		}
	case TypeActiveSelector:
		if n.High == "" {
			return fmt.Errorf("%w: active selector requires high", ErrMissingNode)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNodeType, n.Type)
	}
	return nil
}

func (d *Definition) names() []string {
	names := make([]string, 0, len(d.Nodes))
	for name := range d.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fingerprint hashes the canonical JSON form of the definition. Map keys are
// sorted by encoding/json, so equal definitions hash equally whatever format
// they were loaded from.
func (d *Definition) Fingerprint() uint64 {
	data, err := json.Marshal(d)
	if err != nil {
		// params hold only decoded YAML/JSON values
		panic(fmt.Errorf("failed to encode tree definition: %w", err))
	}
	return xxhash.Sum64(data)
}

// FingerprintHex is Fingerprint formatted for logs.
func (d *Definition) FingerprintHex() string {
	return strconv.FormatUint(d.Fingerprint(), 16)
}
