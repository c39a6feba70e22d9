package main

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vizee/gfeign/client"
	"github.com/vizee/gfeign/client/grpcview"
	"github.com/vizee/gfeign/config"
	"github.com/vizee/gfeign/encoding"
	"github.com/vizee/gfeign/encoding/cbor"
	"github.com/vizee/gfeign/encoding/form"
	"github.com/vizee/gfeign/encoding/json"
	"github.com/vizee/gfeign/encoding/jsonpb"
	"github.com/vizee/gfeign/encoding/protobuf"
	"github.com/vizee/gfeign/engine"
	"github.com/vizee/gfeign/interceptor"
	"github.com/vizee/gfeign/log"
	"github.com/vizee/gfeign/metadata"
	"github.com/vizee/gfeign/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"gopkg.in/yaml.v3"
)

// Types YAML contracts declare for bodies and results.
var (
	anyType   = reflect.TypeOf((*any)(nil)).Elem()
	bytesType = reflect.TypeOf([]byte(nil))
)

type callOptions struct {
	contract   string
	method     string
	args       []string
	queryMap   []string
	headerMap  []string
	codec      string
	grpcServer string
	grpcMethod string

	descriptorSet   string
	requestMessage  string
	responseMessage string
}

func (o *callOptions) addFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.contract, "contract", "", "YAML contract file")
	flags.StringVar(&o.method, "method", "", "contract method to call")
	flags.StringArrayVar(&o.args, "arg", nil, "positional argument as a YAML value, repeatable")
	flags.StringArrayVar(&o.queryMap, "query-map", nil, "query map entry name=v1,v2 for the querymap argument")
	flags.StringArrayVar(&o.headerMap, "header-map", nil, "header map entry name=v1,v2 for the headermap argument")
	flags.StringVar(&o.codec, "codec", "json", "body codec: json, cbor, protobuf or jsonpb")
	flags.StringVar(&o.descriptorSet, "descriptor-set", "", "binary FileDescriptorSet for the protobuf and jsonpb codecs")
	flags.StringVar(&o.requestMessage, "request-message", "", "full name of the request body message")
	flags.StringVar(&o.responseMessage, "response-message", "", "full name of the response message, printed as JSON")
	cmd.MarkFlagRequired("contract")
	cmd.MarkFlagRequired("method")
}

func newResolveCommand(root *rootOptions) *cobra.Command {
	o := &callOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the request a method call resolves to without sending it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			md, args, err := o.prepare()
			if err != nil {
				return err
			}
			e, err := newEngine(root.cfg, o, nil)
			if err != nil {
				return err
			}
			rt, err := e.NewBinder(md).Bind(args)
			if err != nil {
				return err
			}
			target := newTarget(root.cfg)
			if _, err := target.Apply(context.Background(), rt); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), rt.String())
			return nil
		},
	}
	o.addFlags(cmd)
	return cmd
}

func newCallCommand(root *rootOptions) *cobra.Command {
	o := &callOptions{}
	cmd := &cobra.Command{
		Use:   "call",
		Short: "Send a method call and print the response body",
		RunE: func(cmd *cobra.Command, _ []string) error {
			md, args, err := o.prepare()
			if err != nil {
				return err
			}
			var collector *metrics.Collector
			if root.cfg.Metrics.Enabled {
				mcfg := metrics.DefaultConfig()
				mcfg.Namespace = root.cfg.Metrics.Namespace
				collector = metrics.New(mcfg)
			}
			e, err := newEngine(root.cfg, o, collector)
			if err != nil {
				return err
			}
			contract := &metadata.Contract{Name: o.contract, Methods: []*metadata.MethodMetadata{md}}
			p, err := e.NewInstance(newTarget(root.cfg), contract, nil)
			if err != nil {
				return err
			}
			result, err := p.Invoke(cmd.Context(), md.Name, args...)
			if collector != nil {
				logMetrics(collector)
			}
			if err != nil {
				return err
			}
			if data, ok := result.([]byte); ok {
				cmd.OutOrStdout().Write(data)
			}
			return nil
		},
	}
	o.addFlags(cmd)
	flags := cmd.Flags()
	flags.StringVar(&o.grpcServer, "grpc-view", "", "send through the httpview gRPC method of this server instead of HTTP")
	flags.StringVar(&o.grpcMethod, "grpc-method", "/gapi.httpview.HttpView/Call", "full gRPC method name used with --grpc-view")
	return cmd
}

func (o *callOptions) prepare() (*metadata.MethodMetadata, []any, error) {
	data, err := os.ReadFile(o.contract)
	if err != nil {
		return nil, nil, err
	}
	contract, err := metadata.LoadYAML(data, nil)
	if err != nil {
		return nil, nil, err
	}
	md := contract.Method(o.method)
	if md == nil {
		return nil, nil, fmt.Errorf("contract %s has no method %s", contract.Name, o.method)
	}
	args, err := parseArgs(md, o.args, o.queryMap, o.headerMap)
	if err != nil {
		return nil, nil, err
	}
	return md, args, nil
}

// parseArgs decodes each --arg as YAML and places the query and header maps
// at the indexes the method declares for them.
func parseArgs(md *metadata.MethodMetadata, raw []string, queryMap []string, headerMap []string) ([]any, error) {
	args := make([]any, len(md.ArgTypes))
	next := 0
	for i := range args {
		switch {
		case md.QueryMapIndex != nil && *md.QueryMapIndex == i:
			m, err := parseMap(queryMap)
			if err != nil {
				return nil, err
			}
			args[i] = m
		case md.HeaderMapIndex != nil && *md.HeaderMapIndex == i:
			m, err := parseMap(headerMap)
			if err != nil {
				return nil, err
			}
			args[i] = m
		default:
			if next >= len(raw) {
				return nil, fmt.Errorf("%s needs more --arg values", md.ConfigKey)
			}
			var v any
			if err := yaml.Unmarshal([]byte(raw[next]), &v); err != nil {
				return nil, fmt.Errorf("--arg %q: %w", raw[next], err)
			}
			args[i] = v
			next++
		}
	}
	if next < len(raw) {
		return nil, fmt.Errorf("%s takes %d --arg values, got %d", md.ConfigKey, next, len(raw))
	}
	return args, nil
}

func parseMap(entries []string) (map[string]any, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	m := make(map[string]any, len(entries))
	for _, e := range entries {
		name, values, ok := strings.Cut(e, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("map entry %q not in the form name=v1,v2", e)
		}
		m[name] = strings.Split(values, ",")
	}
	return m, nil
}

func newEngine(cfg *config.Config, o *callOptions, collector *metrics.Collector) (*engine.Engine, error) {
	level, err := config.ParseLogLevel(cfg.Log.Requests)
	if err != nil {
		return nil, err
	}
	b := engine.NewBuilder().
		Options(cfg.Client.Options()).
		Decoder(encoding.DefaultDecoder).
		LogLevel(level).
		Use(&interceptor.RequestID{})
	switch o.codec {
	case "", "json":
		b.Encoder(&form.Encoder{Delegate: &json.Encoder{}})
	case "cbor":
		c, err := cbor.New()
		if err != nil {
			return nil, err
		}
		b.Encoder(&form.Encoder{Delegate: c})
	case "protobuf":
		fds, err := o.descriptors()
		if err != nil {
			return nil, err
		}
		d := &protobuf.Dynamic{Deterministic: true}
		if d.Request, err = findMessage(fds, o.requestMessage); err != nil {
			return nil, err
		}
		if d.Response, err = findMessage(fds, o.responseMessage); err != nil {
			return nil, err
		}
		b.Encoder(&form.Encoder{Delegate: d})
		if d.Response != nil {
			b.Decoder(d)
		}
	case "jsonpb":
		fds, err := o.descriptors()
		if err != nil {
			return nil, err
		}
		c := &jsonpb.Codec{}
		if o.requestMessage != "" {
			if err := c.RegisterFiles(anyType, fds, protoreflect.FullName(o.requestMessage)); err != nil {
				return nil, err
			}
		}
		if o.responseMessage != "" {
			if err := c.RegisterFiles(bytesType, fds, protoreflect.FullName(o.responseMessage)); err != nil {
				return nil, err
			}
			b.Decoder(c)
		}
		b.Encoder(&form.Encoder{Delegate: c})
	default:
		return nil, fmt.Errorf("unknown codec %q", o.codec)
	}
	if cfg.Client.Dismiss404 {
		b.Dismiss404()
	}
	if collector != nil {
		b.Metrics(collector)
	}
	if o.grpcServer != "" {
		conn, err := grpc.NewClient(o.grpcServer, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", o.grpcServer, err)
		}
		b.Client(grpcview.New(conn, o.grpcMethod))
	} else {
		b.Client(client.New(cfg.Client.Options()))
	}
	return b.Build(), nil
}

func (o *callOptions) descriptors() (*descriptorpb.FileDescriptorSet, error) {
	if o.descriptorSet == "" {
		return nil, fmt.Errorf("codec %s needs --descriptor-set", o.codec)
	}
	return jsonpb.LoadFiles(o.descriptorSet)
}

func findMessage(fds *descriptorpb.FileDescriptorSet, name string) (protoreflect.MessageDescriptor, error) {
	if name == "" {
		return nil, nil
	}
	return jsonpb.FindMessage(fds, protoreflect.FullName(name))
}

func newTarget(cfg *config.Config) engine.Target {
	if cfg.BaseURL == "" {
		return engine.NewEmptyTarget(nil, "cli")
	}
	return engine.NewNamedTarget(nil, "cli", cfg.BaseURL)
}

func logMetrics(c *metrics.Collector) {
	families, err := c.Registry().Gather()
	if err != nil {
		log.Warnf("gather metrics: %v", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				log.Infof("%s{%s} %v", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				log.Infof("%s{%s} count=%d sum=%v", mf.GetName(), strings.Join(labels, ","), m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum())
			}
		}
	}
}
