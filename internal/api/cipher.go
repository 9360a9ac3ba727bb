package api

import (
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/RowanDark/cryptolab/internal/analysis"
	"github.com/RowanDark/cryptolab/internal/bytecodec"
	"github.com/RowanDark/cryptolab/internal/cipher"
)

// Text fields carry Latin-1: each character is one byte, U+0000 to U+00FF.

// OperationRequest executes one registered operation.
type OperationRequest struct {
	Operation string         `json:"operation"`
	Input     string         `json:"input"`
	Config    map[string]any `json:"config,omitempty"`
}

// OutputResponse carries a transformed text.
type OutputResponse struct {
	Output string `json:"output"`
}

// PipelineRequest executes a chain of operations.
type PipelineRequest struct {
	Input      string                   `json:"input"`
	Operations []cipher.OperationConfig `json:"operations"`
	Reverse    bool                     `json:"reverse,omitempty"`
}

// CipherRequest encodes or decodes with a known key. IV is only read by the
// cbc_vigenere scheme.
type CipherRequest struct {
	Scheme string `json:"scheme"`
	Text   string `json:"text"`
	Key    string `json:"key"`
	IV     string `json:"iv,omitempty"`
}

// BreakRequest asks for a keyless attack.
type BreakRequest struct {
	Scheme string `json:"scheme"`
	Text   string `json:"text"`
}

// BreakResponse reports an attack. Plaintext holds the recovered text, or
// every brute-force candidate joined by newlines.
type BreakResponse struct {
	Scheme     string      `json:"scheme"`
	Method     string      `json:"method"`
	Key        []int8      `json:"key,omitempty"`
	KeyLength  int         `json:"key_length"`
	Plaintext  string      `json:"plaintext"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// Candidate is one brute-force key and its output.
type Candidate struct {
	Key       int8   `json:"key"`
	Plaintext string `json:"plaintext"`
}

// PadRequest asks for random pad material.
type PadRequest struct {
	Length int `json:"length"`
}

// PadResponse returns pad material as hex and as signed bytes.
type PadResponse struct {
	Hex   string `json:"hex"`
	Bytes []int8 `json:"bytes"`
}

// OperationInfo describes a registered operation.
type OperationInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Reversible  bool   `json:"reversible"`
}

func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	var ops []cipher.Operation
	if t := strings.TrimSpace(r.URL.Query().Get("type")); t != "" {
		ops = cipher.ListOperationsByType(cipher.OperationType(t))
	} else {
		ops = cipher.ListOperations()
	}

	list := make([]OperationInfo, 0, len(ops))
	for _, op := range ops {
		_, reversible := op.Reverse()
		list = append(list, OperationInfo{
			Name:        op.Name(),
			Type:        string(op.Type()),
			Description: op.Description(),
			Reversible:  reversible,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"operations": list})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req OperationRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Operation == "" {
		s.writeError(w, http.StatusBadRequest, "operation field is required")
		return
	}
	if !s.checkSize(w, req.Input) {
		return
	}
	op, err := cipher.LookupOperation(req.Operation)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	in, err := bytecodec.Encode(req.Input)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	params := req.Config
	if params == nil {
		params = map[string]any{}
	}

	out, err := op.Execute(r.Context(), in, params)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, OutputResponse{Output: bytecodec.Decode(out)})
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	var req PipelineRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Operations) == 0 {
		s.writeError(w, http.StatusBadRequest, "operations field is required and must not be empty")
		return
	}
	if !s.checkSize(w, req.Input) {
		return
	}
	in, err := bytecodec.Encode(req.Input)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	pipeline := &cipher.Pipeline{Operations: req.Operations, Reversible: req.Reverse}
	if req.Reverse {
		if pipeline, err = pipeline.Reverse(); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	out, err := pipeline.Execute(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, OutputResponse{Output: bytecodec.Decode(out)})
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	s.handleCipher(w, r, false)
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	s.handleCipher(w, r, true)
}

func (s *Server) handleCipher(w http.ResponseWriter, r *http.Request, decode bool) {
	var req CipherRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.checkSize(w, req.Text) {
		return
	}
	scheme, err := cipher.ParseScheme(req.Scheme)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx := r.Context()
	var out string
	switch {
	case scheme == cipher.SchemeCBCVigenere && decode:
		out, err = s.engine.DecodeHybrid(ctx, req.Text, req.IV, req.Key)
	case scheme == cipher.SchemeCBCVigenere:
		out, err = s.engine.EncodeHybrid(ctx, req.Text, req.IV, req.Key)
	case decode:
		out, err = s.engine.DecodeKnownKey(ctx, req.Text, req.Key, scheme)
	default:
		out, err = s.engine.Encode(ctx, req.Text, req.Key, scheme)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, OutputResponse{Output: out})
}

func (s *Server) handleBreak(w http.ResponseWriter, r *http.Request) {
	var req BreakRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.checkSize(w, req.Text) {
		return
	}
	scheme, err := cipher.ParseScheme(req.Scheme)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.engine.Break(r.Context(), req.Text, scheme)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, breakResponse(res))
}

func breakResponse(res analysis.Result) BreakResponse {
	resp := BreakResponse{
		Scheme:    string(res.Scheme),
		Method:    string(res.Method),
		Key:       bytecodec.Ints(res.Key),
		KeyLength: res.KeyLength,
		Plaintext: res.Text(),
	}
	if len(res.Candidates) > 0 {
		resp.Candidates = make([]Candidate, len(res.Candidates))
		for i, c := range res.Candidates {
			resp.Candidates[i] = Candidate{Key: c.Key, Plaintext: bytecodec.Decode(c.Plaintext)}
		}
	}
	return resp
}

func (s *Server) handlePad(w http.ResponseWriter, r *http.Request) {
	var req PadRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Length < 0 || req.Length > s.cfg.MaxInputBytes {
		s.writeError(w, http.StatusBadRequest, "length out of range")
		return
	}
	pad, err := s.engine.GeneratePad(r.Context(), req.Length)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, PadResponse{Hex: hex.EncodeToString(pad), Bytes: bytecodec.Ints(pad)})
}
