package ledger

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// Record returns the plain-data representation of the block: a mapping
// with keys index, proof_no, prev_hash, data and timestamp, suitable
// for JSON-style serialization by a surrounding service layer.
func (b Block) Record() map[string]any {
	data := make([]any, 0, len(b.Data))
	for _, tx := range b.Data {
		data = append(data, map[string]any{
			"sender":    tx.Sender,
			"recipient": tx.Recipient,
			"quantity":  tx.Quantity,
		})
	}
	return map[string]any{
		"index":     b.Index,
		"proof_no":  b.ProofNo,
		"prev_hash": b.PrevHash,
		"data":      data,
		"timestamp": b.Timestamp,
	}
}

// DeserializeBlock reconstructs a Block from its record representation,
// the inverse of Record. A missing key or a wrongly typed value fails
// with ErrMalformedRecord. Numeric values decoded by encoding/json
// (float64, json.Number) are accepted alongside native Go integers.
func DeserializeBlock(record map[string]any) (Block, error) {
	index, err := uintField(record, "index")
	if err != nil {
		return Block{}, err
	}
	proofNo, err := uintField(record, "proof_no")
	if err != nil {
		return Block{}, err
	}
	prevHash, err := stringField(record, "prev_hash")
	if err != nil {
		return Block{}, err
	}
	data, err := transactionsField(record, "data")
	if err != nil {
		return Block{}, err
	}
	timestamp, err := intField(record, "timestamp")
	if err != nil {
		return Block{}, err
	}

	return Block{
		Index:     index,
		ProofNo:   proofNo,
		PrevHash:  prevHash,
		Data:      data,
		Timestamp: timestamp,
	}, nil
}

func fieldValue(record map[string]any, key string) (any, error) {
	v, ok := record[key]
	if !ok {
		return nil, errors.Wrapf(ErrMalformedRecord, "missing key %q", key)
	}
	return v, nil
}

func stringField(record map[string]any, key string) (string, error) {
	v, err := fieldValue(record, key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Wrapf(ErrMalformedRecord, "key %q: want string, got %T", key, v)
	}
	return s, nil
}

func uintField(record map[string]any, key string) (uint64, error) {
	v, err := fieldValue(record, key)
	if err != nil {
		return 0, err
	}
	n, err := asInt64(v)
	if err != nil || n < 0 {
		return 0, errors.Wrapf(ErrMalformedRecord, "key %q: want non-negative integer, got %v", key, v)
	}
	return uint64(n), nil
}

func intField(record map[string]any, key string) (int64, error) {
	v, err := fieldValue(record, key)
	if err != nil {
		return 0, err
	}
	n, err := asInt64(v)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedRecord, "key %q: want integer, got %v (%T)", key, v, v)
	}
	return n, nil
}

func floatField(record map[string]any, key string) (float64, error) {
	v, err := fieldValue(record, key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, errors.Wrapf(ErrMalformedRecord, "key %q: %v", key, err)
		}
		return f, nil
	default:
		return 0, errors.Wrapf(ErrMalformedRecord, "key %q: want number, got %T", key, v)
	}
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, errors.New("integer overflow")
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt64 {
			return 0, errors.New("not an integer")
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	default:
		return 0, errors.Errorf("unsupported type %T", v)
	}
}

func transactionsField(record map[string]any, key string) ([]Transaction, error) {
	v, err := fieldValue(record, key)
	if err != nil {
		return nil, err
	}

	switch data := v.(type) {
	case nil:
		return nil, nil
	case []Transaction:
		out := make([]Transaction, len(data))
		copy(out, data)
		return out, nil
	case []any:
		out := make([]Transaction, 0, len(data))
		for i, el := range data {
			rec, ok := el.(map[string]any)
			if !ok {
				return nil, errors.Wrapf(ErrMalformedRecord, "key %q[%d]: want mapping, got %T", key, i, el)
			}
			tx, err := deserializeTransaction(rec)
			if err != nil {
				return nil, errors.Wrapf(err, "key %q[%d]", key, i)
			}
			out = append(out, tx)
		}
		return out, nil
	default:
		return nil, errors.Wrapf(ErrMalformedRecord, "key %q: want sequence, got %T", key, v)
	}
}

func deserializeTransaction(record map[string]any) (Transaction, error) {
	sender, err := stringField(record, "sender")
	if err != nil {
		return Transaction{}, err
	}
	recipient, err := stringField(record, "recipient")
	if err != nil {
		return Transaction{}, err
	}
	quantity, err := floatField(record, "quantity")
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{Sender: sender, Recipient: recipient, Quantity: quantity}, nil
}
