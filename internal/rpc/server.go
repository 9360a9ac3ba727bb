package rpc

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/RowanDark/cryptolab/internal/analysis"
	"github.com/RowanDark/cryptolab/internal/bytecodec"
	"github.com/RowanDark/cryptolab/internal/cipher"
	"github.com/RowanDark/cryptolab/internal/engine"
)

const defaultMaxInputBytes = 32 * 1024

// Server implements CipherServer on top of an Engine.
type Server struct {
	engine   *engine.Engine
	maxInput int
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithMaxInputBytes caps the text accepted by a single call.
func WithMaxInputBytes(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxInput = n
		}
	}
}

// NewServer constructs a CipherService backed by e.
func NewServer(e *engine.Engine, opts ...ServerOption) *Server {
	if e == nil {
		e = engine.New()
	}
	srv := &Server{engine: e, maxInput: defaultMaxInputBytes}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

func (s *Server) Encode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.transform(ctx, req, false)
}

func (s *Server) Decode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.transform(ctx, req, true)
}

func (s *Server) transform(ctx context.Context, req *structpb.Struct, decode bool) (*structpb.Struct, error) {
	scheme, text, err := s.schemeAndText(req)
	if err != nil {
		return nil, err
	}
	key, iv := stringField(req, "key"), stringField(req, "iv")

	var out string
	switch {
	case scheme == cipher.SchemeCBCVigenere && decode:
		out, err = s.engine.DecodeHybrid(ctx, text, iv, key)
	case scheme == cipher.SchemeCBCVigenere:
		out, err = s.engine.EncodeHybrid(ctx, text, iv, key)
	case decode:
		out, err = s.engine.DecodeKnownKey(ctx, text, key, scheme)
	default:
		out, err = s.engine.Encode(ctx, text, key, scheme)
	}
	if err != nil {
		return nil, statusError(err)
	}
	return structpb.NewStruct(map[string]any{"output": out})
}

func (s *Server) Break(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scheme, text, err := s.schemeAndText(req)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.Break(ctx, text, scheme)
	if err != nil {
		return nil, statusError(err)
	}

	key := make([]any, len(res.Key))
	for i, k := range bytecodec.Ints(res.Key) {
		key[i] = int(k)
	}
	reply := map[string]any{
		"scheme":     string(res.Scheme),
		"method":     string(res.Method),
		"key":        key,
		"key_length": res.KeyLength,
		"plaintext":  res.Text(),
	}
	if res.Method == analysis.MethodBruteForce {
		candidates := make([]any, len(res.Candidates))
		for i, c := range res.Candidates {
			candidates[i] = map[string]any{"key": int(c.Key), "plaintext": bytecodec.Decode(c.Plaintext)}
		}
		reply["candidates"] = candidates
	}
	return structpb.NewStruct(reply)
}

func (s *Server) GeneratePad(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	v, ok := req.GetFields()["length"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "length is required")
	}
	n := v.GetNumberValue()
	if n < 0 || n > float64(s.maxInput) || n != float64(int(n)) {
		return nil, status.Errorf(codes.InvalidArgument, "length must be an integer between 0 and %d", s.maxInput)
	}
	pad, err := s.engine.GeneratePad(ctx, int(n))
	if err != nil {
		return nil, statusError(err)
	}
	return structpb.NewStruct(map[string]any{"hex": hex.EncodeToString(pad)})
}

func (s *Server) ListOperations(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var ops []cipher.Operation
	if t := stringField(req, "type"); t != "" {
		ops = cipher.ListOperationsByType(cipher.OperationType(t))
	} else {
		ops = cipher.ListOperations()
	}
	list := make([]any, len(ops))
	for i, op := range ops {
		_, reversible := op.Reverse()
		list[i] = map[string]any{
			"name":        op.Name(),
			"type":        string(op.Type()),
			"description": op.Description(),
			"reversible":  reversible,
		}
	}
	return structpb.NewStruct(map[string]any{"operations": list})
}

func (s *Server) schemeAndText(req *structpb.Struct) (cipher.Scheme, string, error) {
	if req == nil {
		return "", "", status.Error(codes.InvalidArgument, "request is required")
	}
	scheme, err := cipher.ParseScheme(stringField(req, "scheme"))
	if err != nil {
		return "", "", status.Error(codes.InvalidArgument, err.Error())
	}
	text := stringField(req, "text")
	raw, err := bytecodec.Encode(text)
	if err != nil {
		return "", "", status.Error(codes.InvalidArgument, err.Error())
	}
	if len(raw) > s.maxInput {
		return "", "", status.Errorf(codes.ResourceExhausted, "input of %d bytes exceeds %d", len(raw), s.maxInput)
	}
	return scheme, text, nil
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// statusError maps engine errors onto gRPC status codes.
func statusError(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, analysis.ErrPeriodNotFound):
		code = codes.FailedPrecondition
	case errors.Is(err, cipher.ErrOperationNotFound), errors.Is(err, cipher.ErrRecipeNotFound):
		code = codes.NotFound
	case errors.Is(err, cipher.ErrInvalidKeyLength),
		errors.Is(err, cipher.ErrUnknownScheme),
		errors.Is(err, bytecodec.ErrUnrepresentable),
		errors.Is(err, analysis.ErrNotBreakable),
		errors.Is(err, engine.ErrHybridNeedsIV):
		code = codes.InvalidArgument
	default:
		return status.Error(codes.Internal, fmt.Sprintf("cipher engine: %s", strings.TrimSpace(err.Error())))
	}
	return status.Error(code, err.Error())
}
