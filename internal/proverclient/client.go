// Package proverclient implements external.Prover over gRPC, encoding
// obligations as dynamic protobuf messages against a small built-in
// descriptor rather than a generated .pb.go — the same
// protoreflect/dynamic technique the teacher's
// internal/evaluator/builtins_grpc.go uses to call an arbitrary
// service whose .proto is only known at runtime, applied here to our
// own fixed message shape instead of a user-supplied one.
package proverclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/wyverify/wyverify/internal/external"
	"github.com/wyverify/wyverify/internal/vcgen"
)

// methodPath is the fully-qualified gRPC method this client invokes.
// The service is never generated from this package — it only needs to
// accept the wire shape obligationFile below describes, at whatever
// address Dial is given.
const methodPath = "/wyverify.prover.Prover/Check"

// Client is a Prover backed by a single gRPC connection.
type Client struct {
	conn *grpc.ClientConn
	file *desc.FileDescriptor
}

// Dial opens a gRPC connection to a prover service at addr.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	file, err := obligationFile()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Client{conn: conn, file: file}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

var _ external.Prover = (*Client)(nil)

// Check implements external.Prover by encoding every obligation in mod
// as a dynamic CheckRequest message, invoking the prover's Check RPC,
// and decoding the resulting per-obligation verdicts.
func (c *Client) Check(ctx context.Context, mod *vcgen.Module) ([]external.CheckResult, error) {
	reqMsgDesc := c.file.FindMessage("wyverify.prover.CheckRequest")
	respMsgDesc := c.file.FindMessage("wyverify.prover.CheckResponse")
	obligationDesc := c.file.FindMessage("wyverify.prover.Obligation")

	req := dynamic.NewMessage(reqMsgDesc)
	var obligations []*dynamic.Message
	for _, ob := range mod.Obligations {
		m := dynamic.NewMessage(obligationDesc)
		m.SetFieldByName("id", ob.ID.String())
		m.SetFieldByName("kind", string(ob.Kind))
		m.SetFieldByName("gamma", ob.Gamma.String())
		m.SetFieldByName("phi", ob.Phi.String())
		obligations = append(obligations, m)
	}
	var obligationsAny []interface{}
	for _, m := range obligations {
		obligationsAny = append(obligationsAny, m)
	}
	req.SetFieldByName("obligations", obligationsAny)

	resp := dynamic.NewMessage(respMsgDesc)
	if err := c.conn.Invoke(ctx, methodPath, req, resp); err != nil {
		return nil, fmt.Errorf("prover RPC failed: %w", err)
	}

	resultsField, err := resp.TryGetFieldByName("results")
	if err != nil {
		return nil, err
	}
	raw, ok := resultsField.([]interface{})
	if !ok {
		return nil, fmt.Errorf("prover response had unexpected results shape")
	}

	out := make([]external.CheckResult, 0, len(raw))
	for _, r := range raw {
		rm, ok := r.(*dynamic.Message)
		if !ok {
			continue
		}
		id, _ := rm.TryGetFieldByName("obligation_id")
		verdict, _ := rm.TryGetFieldByName("verdict")
		ce, _ := rm.TryGetFieldByName("counterexample")
		out = append(out, external.CheckResult{
			ObligationID:   fmt.Sprintf("%v", id),
			Verdict:        decodeVerdict(fmt.Sprintf("%v", verdict)),
			Counterexample: decodeCounterexample(fmt.Sprintf("%v", ce)),
		})
	}
	return out, nil
}

func decodeVerdict(s string) external.Verdict {
	switch s {
	case "valid":
		return external.VerdictValid
	case "invalid":
		return external.VerdictInvalid
	default:
		return external.VerdictUnknown
	}
}

// decodeCounterexample unmarshals the counterexample field, a JSON
// object mapping each free variable's name to the prover's rendered
// value for it (the wire convention a server on the other end of
// methodPath must also speak), into the map external.CheckResult
// expects. An empty or malformed field means no witness, same as a
// valid verdict carrying none.
func decodeCounterexample(s string) map[string]string {
	if s == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}

// obligationFile builds the descriptor for the four messages Check
// exchanges, entirely in memory — there is no .proto file on disk to
// parse, unlike the teacher's grpcLoadProto which parses a
// caller-supplied file; our message shape is fixed, so it's built
// once from descriptorpb structs instead.
func obligationFile() (*desc.FileDescriptor, error) {
	str := descriptorpb.FieldDescriptorProto_TYPE_STRING
	msg := descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	repeated := descriptorpb.FieldDescriptorProto_LABEL_REPEATED

	field := func(name string, num int32, t descriptorpb.FieldDescriptorProto_Type, lbl descriptorpb.FieldDescriptorProto_Label, typeName string) *descriptorpb.FieldDescriptorProto {
		f := &descriptorpb.FieldDescriptorProto{
			Name:     proto(name),
			Number:   protoInt32(num),
			Type:     t.Enum(),
			Label:    lbl.Enum(),
			JsonName: proto(name),
		}
		if typeName != "" {
			f.TypeName = proto(typeName)
		}
		return f
	}

	obligationMsg := &descriptorpb.DescriptorProto{
		Name: proto("Obligation"),
		Field: []*descriptorpb.FieldDescriptorProto{
			field("id", 1, str, label, ""),
			field("kind", 2, str, label, ""),
			field("gamma", 3, str, label, ""),
			field("phi", 4, str, label, ""),
		},
	}
	reqMsg := &descriptorpb.DescriptorProto{
		Name: proto("CheckRequest"),
		Field: []*descriptorpb.FieldDescriptorProto{
			field("obligations", 1, msg, repeated, ".wyverify.prover.Obligation"),
		},
	}
	resultMsg := &descriptorpb.DescriptorProto{
		Name: proto("CheckResult"),
		Field: []*descriptorpb.FieldDescriptorProto{
			field("obligation_id", 1, str, label, ""),
			field("verdict", 2, str, label, ""),
			// JSON object of variable name to rendered value, or empty
			// when the verdict carries no witness; see decodeCounterexample.
			field("counterexample", 3, str, label, ""),
		},
	}
	respMsg := &descriptorpb.DescriptorProto{
		Name: proto("CheckResponse"),
		Field: []*descriptorpb.FieldDescriptorProto{
			field("results", 1, msg, repeated, ".wyverify.prover.CheckResult"),
		},
	}

	fd := &descriptorpb.FileDescriptorProto{
		Name:    proto("obligation.proto"),
		Package: proto("wyverify.prover"),
		Syntax:  proto("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			obligationMsg, reqMsg, resultMsg, respMsg,
		},
	}

	return desc.CreateFileDescriptor(fd)
}

func proto(s string) *string  { return &s }
func protoInt32(i int32) *int32 { return &i }
