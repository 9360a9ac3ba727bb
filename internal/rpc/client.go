package rpc

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/RowanDark/cryptolab/internal/bytecodec"
)

// Client calls a remote CipherService.
type Client struct {
	cc    grpc.ClientConnInterface
	conn  *grpc.ClientConn
	token string
}

// NewClient wraps an existing connection.
func NewClient(cc grpc.ClientConnInterface, token string) *Client {
	return &Client{cc: cc, token: token}
}

// Dial connects to target over plaintext unless opts supply credentials.
func Dial(target, token string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return &Client{cc: conn, conn: conn, token: token}, nil
}

// Close releases a connection opened by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Encode enciphers text remotely. iv is only used by cbc_vigenere.
func (c *Client) Encode(ctx context.Context, scheme, text, key, iv string) (string, error) {
	out, err := c.invoke(ctx, MethodEncode, map[string]any{"scheme": scheme, "text": text, "key": key, "iv": iv})
	if err != nil {
		return "", err
	}
	return stringField(out, "output"), nil
}

// Decode deciphers text remotely.
func (c *Client) Decode(ctx context.Context, scheme, text, key, iv string) (string, error) {
	out, err := c.invoke(ctx, MethodDecode, map[string]any{"scheme": scheme, "text": text, "key": key, "iv": iv})
	if err != nil {
		return "", err
	}
	return stringField(out, "output"), nil
}

// BreakReply is the decoded Break response.
type BreakReply struct {
	Scheme    string
	Method    string
	Key       []byte
	KeyLength int
	Plaintext string
	// Candidates holds brute-force output indexed by key+128.
	Candidates []string
}

// Break runs a keyless attack remotely.
func (c *Client) Break(ctx context.Context, scheme, text string) (BreakReply, error) {
	out, err := c.invoke(ctx, MethodBreak, map[string]any{"scheme": scheme, "text": text})
	if err != nil {
		return BreakReply{}, err
	}
	fields := out.GetFields()
	reply := BreakReply{
		Scheme:    fields["scheme"].GetStringValue(),
		Method:    fields["method"].GetStringValue(),
		KeyLength: int(fields["key_length"].GetNumberValue()),
		Plaintext: fields["plaintext"].GetStringValue(),
	}
	for _, v := range fields["key"].GetListValue().GetValues() {
		reply.Key = append(reply.Key, bytecodec.Residue(int(v.GetNumberValue())))
	}
	for _, v := range fields["candidates"].GetListValue().GetValues() {
		reply.Candidates = append(reply.Candidates, v.GetStructValue().GetFields()["plaintext"].GetStringValue())
	}
	return reply, nil
}

// GeneratePad fetches n bytes of pad material.
func (c *Client) GeneratePad(ctx context.Context, n int) ([]byte, error) {
	out, err := c.invoke(ctx, MethodGeneratePad, map[string]any{"length": n})
	if err != nil {
		return nil, err
	}
	pad, err := hex.DecodeString(stringField(out, "hex"))
	if err != nil {
		return nil, errors.New("malformed pad in reply")
	}
	return pad, nil
}

// OperationInfo describes a registered operation.
type OperationInfo struct {
	Name        string
	Type        string
	Description string
	Reversible  bool
}

// ListOperations lists the operations registered on the server, optionally
// restricted to one type.
func (c *Client) ListOperations(ctx context.Context, opType string) ([]OperationInfo, error) {
	req := map[string]any{}
	if opType != "" {
		req["type"] = opType
	}
	out, err := c.invoke(ctx, MethodListOperations, req)
	if err != nil {
		return nil, err
	}
	values := out.GetFields()["operations"].GetListValue().GetValues()
	ops := make([]OperationInfo, 0, len(values))
	for _, v := range values {
		f := v.GetStructValue().GetFields()
		ops = append(ops, OperationInfo{
			Name:        f["name"].GetStringValue(),
			Type:        f["type"].GetStringValue(),
			Description: f["description"].GetStringValue(),
			Reversible:  f["reversible"].GetBoolValue(),
		})
	}
	return ops, nil
}
