package jsonpb

import (
	"fmt"
	"os"
	"reflect"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

func collectFiles(fds []*descriptorpb.FileDescriptorProto, visit map[string]bool, fd protoreflect.FileDescriptor) []*descriptorpb.FileDescriptorProto {
	visit[fd.Path()] = true
	imports := fd.Imports()
	for i := 0; i < imports.Len(); i++ {
		imported := imports.Get(i)
		if visit[imported.Path()] {
			continue
		}
		fds = collectFiles(fds, visit, imported.FileDescriptor)
	}
	// dependencies first, protodesc.NewFiles needs them resolved
	return append(fds, protodesc.ToFileDescriptorProto(fd))
}

// CollectFiles returns the file descriptors declaring names and their
// imports, looked up in the global registry.
func CollectFiles(names ...protoreflect.FullName) (*descriptorpb.FileDescriptorSet, error) {
	var fds []*descriptorpb.FileDescriptorProto
	visit := make(map[string]bool)
	for _, name := range names {
		d, err := protoregistry.GlobalFiles.FindDescriptorByName(name)
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", name, err)
		}
		fd := d.ParentFile()
		if visit[fd.Path()] {
			continue
		}
		fds = collectFiles(fds, visit, fd)
	}
	return &descriptorpb.FileDescriptorSet{File: fds}, nil
}

// CollectServerFiles collects the files of every service registered on srv.
// The set can be shipped to clients that lack the generated code.
func CollectServerFiles(srv *grpc.Server) (*descriptorpb.FileDescriptorSet, error) {
	var names []protoreflect.FullName
	for name := range srv.GetServiceInfo() {
		names = append(names, protoreflect.FullName(name))
	}
	return CollectFiles(names...)
}

// LoadFiles reads a binary descriptor set, e.g. one produced by
// protoc --descriptor_set_out --include_imports.
func LoadFiles(path string) (*descriptorpb.FileDescriptorSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fds descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &fds); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &fds, nil
}

// FindMessage looks up the message called name in fds.
func FindMessage(fds *descriptorpb.FileDescriptorSet, name protoreflect.FullName) (protoreflect.MessageDescriptor, error) {
	files, err := protodesc.NewFiles(fds)
	if err != nil {
		return nil, err
	}
	d, err := files.FindDescriptorByName(name)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", name, err)
	}
	md, ok := d.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("%s is not a message", name)
	}
	return md, nil
}

// RegisterFiles binds typ to the message called name in a descriptor set.
func (c *Codec) RegisterFiles(typ reflect.Type, fds *descriptorpb.FileDescriptorSet, name protoreflect.FullName) error {
	md, err := FindMessage(fds, name)
	if err != nil {
		return err
	}
	c.Register(typ, md)
	return nil
}
