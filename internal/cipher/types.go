package cipher

import (
	"context"
	"fmt"
)

// OperationType defines the category of a registered operation
type OperationType string

const (
	OperationTypeEncode  OperationType = "encode"
	OperationTypeDecode  OperationType = "decode"
	OperationTypeEncrypt OperationType = "encrypt"
	OperationTypeDecrypt OperationType = "decrypt"
	OperationTypeAnalyze OperationType = "analyze"
)

// Operation is a named byte transform that can be chained in a Pipeline
type Operation interface {
	// Name returns the unique identifier for this operation
	Name() string

	// Type returns the category of this operation
	Type() OperationType

	// Description returns a human-readable description
	Description() string

	// Execute applies the operation to the input bytes
	Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error)

	// Reverse returns the inverse operation if one exists
	Reverse() (Operation, bool)
}

// OperationConfig is one step of a pipeline
type OperationConfig struct {
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// Pipeline applies operations in order
type Pipeline struct {
	Operations []OperationConfig `json:"operations"`
	Reversible bool              `json:"reversible"`
}

// Execute runs the pipeline on input. Each step sees the previous step's output.
func (p *Pipeline) Execute(ctx context.Context, input []byte) ([]byte, error) {
	result := input
	var err error

	for i, step := range p.Operations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		op, exists := GetOperation(step.Name)
		if !exists {
			return nil, fmt.Errorf("step %d: %w: %s", i, ErrOperationNotFound, step.Name)
		}

		result, err = op.Execute(ctx, result, step.Parameters)
		if err != nil {
			return nil, fmt.Errorf("operation %s failed at step %d: %w", step.Name, i, err)
		}
	}

	return result, nil
}

// Reverse builds the inverse pipeline. Parameters are carried over unchanged
// because every decode operation takes the same key as its encoder.
func (p *Pipeline) Reverse() (*Pipeline, error) {
	if !p.Reversible {
		return nil, fmt.Errorf("pipeline is not reversible")
	}

	reversed := &Pipeline{
		Operations: make([]OperationConfig, len(p.Operations)),
		Reversible: true,
	}

	for i, step := range p.Operations {
		op, exists := GetOperation(step.Name)
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrOperationNotFound, step.Name)
		}

		inverse, ok := op.Reverse()
		if !ok {
			return nil, fmt.Errorf("operation %s is not reversible", step.Name)
		}

		reversed.Operations[len(p.Operations)-1-i] = OperationConfig{
			Name:       inverse.Name(),
			Parameters: step.Parameters,
		}
	}

	return reversed, nil
}

// Recipe is a named, persisted pipeline
type Recipe struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Pipeline    Pipeline `json:"pipeline"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// BaseOperation carries the metadata shared by every operation
type BaseOperation struct {
	NameValue        string
	TypeValue        OperationType
	DescriptionValue string
	ReverseOp        Operation
}

func (b *BaseOperation) Name() string {
	return b.NameValue
}

func (b *BaseOperation) Type() OperationType {
	return b.TypeValue
}

func (b *BaseOperation) Description() string {
	return b.DescriptionValue
}

func (b *BaseOperation) Reverse() (Operation, bool) {
	if b.ReverseOp == nil {
		return nil, false
	}
	return b.ReverseOp, true
}
