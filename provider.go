package video_downloader

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/stroud/video-downloader/generic"
)

var (
	ErrDuplicateProvider = errors.New("duplicate provider name")
	ErrInvalidProvider   = errors.New("invalid provider")
	ErrNoMatch           = errors.New("no provider matched the input")
	ErrUnknownProvider   = errors.New("unknown provider")
)

var (
	PriorityHighest int16 = math.MinInt16
	PriorityDefault int16 = 0
	PriorityLowest  int16 = math.MaxInt16
)

type MatchFunc = func(string) (Source, error)

// Provider turns URL-file lines it recognises into a Source.
type Provider struct {
	Name  string
	Match MatchFunc
	// Providers are tried from the lowest Priority up.
	Priority int16
}

func (p Provider) WithPriority(priority int16) Provider {
	p.Priority = priority
	return p
}

// Match records which provider accepted a line.
type Match struct {
	ProviderName string
	Source       Source
}

// ProviderRegistry holds the providers a batch can pick from. The zero value is empty and ready to use.
type ProviderRegistry struct {
	ordered []*Provider
	byName  map[string]*Provider
}

// Add rejects providers without a name or match func, and names that are already taken.
func (r *ProviderRegistry) Add(p Provider) error {
	if p.Name == "" || p.Match == nil {
		return ErrInvalidProvider
	}
	if _, taken := r.byName[p.Name]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, p.Name)
	}
	if r.byName == nil {
		r.byName = make(map[string]*Provider)
	}
	r.byName[p.Name] = &p
	r.ordered = append(r.ordered, &p)
	r.reorder()
	return nil
}

// MustAdd is Add for registrations that cannot fail.
func (r *ProviderRegistry) MustAdd(p Provider) {
	generic.Unwrap_(r.Add(p))
}

func (r *ProviderRegistry) lookup(name string) (*Provider, error) {
	if p, ok := r.byName[name]; ok {
		return p, nil
	}
	return nil, ErrUnknownProvider
}

func (r *ProviderRegistry) GetPriority(name string) (int16, error) {
	p, err := r.lookup(name)
	if err != nil {
		return PriorityDefault, err
	}
	return p.Priority, nil
}

// SetPriority moves a provider within the matching order. Providers with equal priority keep their relative order.
func (r *ProviderRegistry) SetPriority(name string, priority int16) error {
	p, err := r.lookup(name)
	if err != nil {
		return err
	}
	p.Priority = priority
	r.reorder()
	return nil
}

// List gives provider names in matching order.
func (r *ProviderRegistry) List() []string {
	names := make([]string, 0, len(r.ordered))
	for _, p := range r.ordered {
		names = append(names, p.Name)
	}
	return names
}

// Match returns the first provider in order that accepts s. When none does, the error wraps ErrNoMatch and lists
// each provider's rejection.
func (r *ProviderRegistry) Match(s string) (*Match, error) {
	rejections := multierror.Append(nil, ErrNoMatch)
	for _, p := range r.ordered {
		source, err := p.Match(s)
		if err == nil && source != nil {
			return &Match{ProviderName: p.Name, Source: source}, nil
		}
		if err == nil {
			err = ErrNoMatch
		}
		rejections = multierror.Append(rejections, multierror.Prefix(err, fmt.Sprintf("[%v]", p.Name)))
	}
	return nil, rejections.ErrorOrNil()
}

// MatchWith skips the ordering and asks only the named provider.
func (r *ProviderRegistry) MatchWith(name string, s string) (*Match, error) {
	p, err := r.lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, name)
	}
	source, err := p.Match(s)
	switch {
	case err != nil:
		return nil, fmt.Errorf("%w: [%v] %v", ErrNoMatch, p.Name, err)
	case source == nil:
		return nil, ErrNoMatch
	}
	return &Match{ProviderName: p.Name, Source: source}, nil
}

func (r *ProviderRegistry) reorder() {
	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.ordered[i].Priority < r.ordered[j].Priority
	})
}

// DefaultProviderRegistry is filled in by importing the providers package, and is what a batch.Runner uses when it
// is given no registry.
var DefaultProviderRegistry ProviderRegistry
