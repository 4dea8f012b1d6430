package entity

import "encoding/json"

// ResultStatus tags a single item of a batch as success or failure.
type ResultStatus int

const (
	StatusSuccess ResultStatus = iota
	StatusFailure
)

// ContractCall is a single read-only contract call in a multicall batch.
// Method must exist in ABI; Args are packed with it.
type ContractCall struct {
	Address string
	ABI     string
	Method  string
	Args    []any
}

// CallResult is the outcome of one ContractCall, positionally aligned with the request.
type CallResult struct {
	Status ResultStatus
	Values []any
	Err    error
}

// OK reports whether the call succeeded.
func (r CallResult) OK() bool {
	return r.Status == StatusSuccess && r.Err == nil
}

// CallSuccess wraps decoded return values.
func CallSuccess(values []any) CallResult {
	return CallResult{Status: StatusSuccess, Values: values}
}

// CallFailure wraps a per-item error.
func CallFailure(err error) CallResult {
	return CallResult{Status: StatusFailure, Err: err}
}

// MoveObject is an object read from an object-model chain. Fields holds the
// raw content fields and is decoded by the plugin that requested it.
type MoveObject struct {
	ObjectID string          `json:"objectId"`
	Version  string          `json:"version"`
	Type     string          `json:"type"`
	Fields   json.RawMessage `json:"fields"`
}

// ObjectResult is the outcome of one object lookup, positionally aligned with the request.
type ObjectResult struct {
	Status ResultStatus
	Object MoveObject
	Err    error
}

// OK reports whether the object was found and decoded.
func (r ObjectResult) OK() bool {
	return r.Status == StatusSuccess && r.Err == nil
}

// ObjectSuccess wraps a found object.
func ObjectSuccess(obj MoveObject) ObjectResult {
	return ObjectResult{Status: StatusSuccess, Object: obj}
}

// ObjectFailure wraps a per-object error (missing, deleted, bad shape).
func ObjectFailure(err error) ObjectResult {
	return ObjectResult{Status: StatusFailure, Err: err}
}

// OwnedObjectsFilter narrows owner-scoped discovery. Only one field is used,
// StructType takes precedence.
type OwnedObjectsFilter struct {
	Package    string
	StructType string
}
