// Package micropb is the runtime used by code generated with
// protoc-gen-go-micropb.
//
// It provides the protobuf wire primitives over chunked readers and plain
// writers, the container contracts (Seq, Text, Map) that let generated code
// stay agnostic of where field data lives, the message codec drivers, and a
// side-table registry for extension fields.
//
// Nothing in this package allocates behind the caller's back except the heap
// adapters (SliceOf, StringOf, BytesOf, MapOf) and the growable BufferWriter.
// Fixed containers and FixedWriter never grow past the capacity they were
// built with.
package micropb
