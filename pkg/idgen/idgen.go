package idgen

//go:generate mockgen -source=pkg/idgen/idgen.go -destination=pkg/mock/idgen/idgen_mock.go -package=mock_idgen

import (
	"context"
	"math"
	"sync"

	"github.com/pg-sharding/shardgate/pkg/models/hashfunction"
	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/models/shrule"
	"github.com/pg-sharding/shardgate/pkg/shardlog"
)

// ID marks a value read from an id column. For gene-encoded tags its gene is
// the low bits rather than the hash of the whole value.
type ID int64

type Generator interface {
	// Generate returns the next id of tag. When tag is gene-encoded the low bits
	// carry the hash of gene, or the low bits of the sequence value for a nil gene.
	Generate(ctx context.Context, tag string, gene any) (int64, error)
	// ExtractGene returns the routing gene of an id or a routing value reduced mod modulus.
	ExtractGene(tag string, idOrValue any, modulus int64) (int64, error)
}

type TagSpec struct {
	Gene bool
	Hash hashfunction.HashFunctionType
}

var defaultTagSpec = TagSpec{Hash: hashfunction.HashFunctionMurmur}

// Service is the Generator over range-cached sequences.
type Service struct {
	cache    *RangeCache
	geneBits uint

	mu   sync.RWMutex
	tags map[string]TagSpec
}

var _ Generator = &Service{}

func NewService(seq Sequence, geneBits uint, rangeSize uint64) *Service {
	return &Service{
		cache:    NewRangeCache(seq, rangeSize),
		geneBits: geneBits,
		tags:     map[string]TagSpec{},
	}
}

func (s *Service) Register(tag string, spec TagSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[tag] = spec
}

// RegisterRules registers the generator tags of every table rule.
func (s *Service) RegisterRules(rules map[string]*shrule.ShardingConfig) {
	for _, sc := range rules {
		spec := TagSpec{Gene: sc.GeneEncoded, Hash: sc.HashFunction}
		s.Register(sc.RoutingColumn.GeneratorTag, spec)
		if sc.IDColumn.Name != "" {
			s.Register(sc.IDColumn.GeneratorTag, spec)
		}
	}
}

func (s *Service) spec(tag string) TagSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if spec, ok := s.tags[tag]; ok {
		return spec
	}
	return defaultTagSpec
}

func (s *Service) mask() uint64 {
	return (uint64(1) << s.geneBits) - 1
}

func (s *Service) Generate(ctx context.Context, tag string, gene any) (int64, error) {
	seq, err := s.cache.NextVal(ctx, tag)
	if err != nil {
		return 0, err
	}
	spec := s.spec(tag)
	if !spec.Gene {
		return seq, nil
	}
	if seq > math.MaxInt64>>s.geneBits {
		return 0, sgerror.Newf(sgerror.SG_SEQUENCE_ERROR, "sequence %q exhausted for %d gene bits", tag, s.geneBits)
	}

	/* without a routing value the sequence itself is the gene, so ids spread */
	h := uint64(seq)
	if gene != nil {
		if h, err = s.hash(spec, gene); err != nil {
			return 0, err
		}
	}
	id := seq<<s.geneBits | int64(h&s.mask())
	shardlog.Zero.Debug().
		Str("tag", tag).
		Int64("seq", seq).
		Int64("id", id).
		Msg("generated gene-encoded id")
	return id, nil
}

func (s *Service) hash(spec TagSpec, v any) (uint64, error) {
	h, err := hashfunction.ApplyHashFunction(v, spec.Hash)
	if err != nil {
		return 0, sgerror.Wrap(sgerror.SG_ROUTING_ERROR, err)
	}
	return h, nil
}

func (s *Service) ExtractGene(tag string, idOrValue any, modulus int64) (int64, error) {
	spec := s.spec(tag)

	var h uint64
	if id, ok := idOrValue.(ID); ok && spec.Gene {
		if id < 0 {
			return 0, sgerror.Newf(sgerror.SG_ROUTING_ERROR, "negative id %d of tag %q", id, tag)
		}
		h = uint64(id)
	} else {
		if id, ok := idOrValue.(ID); ok {
			idOrValue = int64(id)
		}
		var err error
		if h, err = s.hash(spec, idOrValue); err != nil {
			return 0, err
		}
	}

	if spec.Gene {
		h &= s.mask()
	}
	if modulus <= 0 {
		return int64(h & math.MaxInt64), nil
	}
	return int64(h % uint64(modulus)), nil
}
