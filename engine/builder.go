package engine

import (
	"github.com/vizee/gfeign/client"
	"github.com/vizee/gfeign/encoding"
	"github.com/vizee/gfeign/encoding/querymap"
	"github.com/vizee/gfeign/internal/slices"
	"github.com/vizee/gfeign/metadata"
)

type Builder struct {
	engine    *Engine
	parseOpts []metadata.ParseOption
}

func NewBuilder() *Builder {
	return &Builder{
		engine: &Engine{
			encoder:         encoding.Default,
			decoder:         encoding.DefaultDecoder,
			errorDecoder:    encoding.DefaultErrorDecoder,
			queryMapEncoder: &querymap.Encoder{},
			options:         client.DefaultOptions(),
		},
	}
}

func (b *Builder) Encoder(encoder encoding.Encoder) *Builder {
	b.engine.encoder = encoder
	return b
}

func (b *Builder) Decoder(decoder encoding.Decoder) *Builder {
	b.engine.decoder = decoder
	return b
}

func (b *Builder) ErrorDecoder(errorDecoder encoding.ErrorDecoder) *Builder {
	b.engine.errorDecoder = errorDecoder
	return b
}

func (b *Builder) QueryMapEncoder(encoder encoding.QueryMapEncoder) *Builder {
	b.engine.queryMapEncoder = encoder
	return b
}

func (b *Builder) Client(c client.Client) *Builder {
	b.engine.client = c
	return b
}

func (b *Builder) Options(opts client.Options) *Builder {
	b.engine.options = opts
	return b
}

// Use appends a request interceptor. Interceptors run in the order added.
func (b *Builder) Use(it Interceptor) *Builder {
	b.engine.interceptors = append(b.engine.interceptors, it)
	return b
}

func (b *Builder) Metrics(m Metrics) *Builder {
	b.engine.metrics = m
	return b
}

func (b *Builder) LogLevel(level LogLevel) *Builder {
	b.engine.logLevel = level
	return b
}

// Dismiss404 makes 404 responses return a zero result instead of an error.
func (b *Builder) Dismiss404() *Builder {
	b.engine.dismiss404 = true
	return b
}

// Contract sets the options used to parse contract types.
func (b *Builder) Contract(opts ...metadata.ParseOption) *Builder {
	b.parseOpts = append(b.parseOpts, opts...)
	return b
}

func (b *Builder) Build() *Engine {
	e := b.engine
	if e.client == nil {
		e.client = client.New(e.options)
	}
	e.interceptors = slices.Shrink(e.interceptors)
	e.contracts = metadata.NewCache(b.parseOpts...)
	return e
}
