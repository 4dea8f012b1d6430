package client

import (
	"encoding/json"
	"fmt"

	"portfolio_aggregator/internal/domain/entity"
)

// suiObjectOptions requests the type and content of every object.
var suiObjectOptions = map[string]bool{
	"showType":    true,
	"showContent": true,
	"showOwner":   false,
}

type suiObjectResponse struct {
	Data  *suiObjectData  `json:"data"`
	Error *suiObjectError `json:"error"`
}

type suiObjectData struct {
	ObjectID string            `json:"objectId"`
	Version  string            `json:"version"`
	Digest   string            `json:"digest"`
	Type     string            `json:"type"`
	Content  *suiObjectContent `json:"content"`
}

type suiObjectContent struct {
	DataType string          `json:"dataType"`
	Type     string          `json:"type"`
	Fields   json.RawMessage `json:"fields"`
}

type suiObjectError struct {
	Code     string `json:"code"`
	ObjectID string `json:"object_id"`
	Error    string `json:"error"`
}

type suiOwnedObjectsPage struct {
	Data        []suiObjectResponse `json:"data"`
	NextCursor  *string             `json:"nextCursor"`
	HasNextPage bool                `json:"hasNextPage"`
}

type suiObjectQuery struct {
	Filter  map[string]string `json:"filter,omitempty"`
	Options map[string]bool   `json:"options"`
}

func newSuiObjectQuery(filter entity.OwnedObjectsFilter) suiObjectQuery {
	q := suiObjectQuery{Options: suiObjectOptions}
	switch {
	case filter.StructType != "":
		q.Filter = map[string]string{"StructType": filter.StructType}
	case filter.Package != "":
		q.Filter = map[string]string{"Package": filter.Package}
	}
	return q
}

// toMoveObject converts a response into a domain object, or explains why it cannot.
func (r suiObjectResponse) toMoveObject() (entity.MoveObject, error) {
	if r.Error != nil {
		return entity.MoveObject{}, fmt.Errorf("object %s: %s", r.Error.ObjectID, r.Error.Code)
	}
	if r.Data == nil {
		return entity.MoveObject{}, fmt.Errorf("object response without data")
	}
	if r.Data.Content == nil || r.Data.Content.DataType != "moveObject" {
		return entity.MoveObject{}, fmt.Errorf("object %s has no move content", r.Data.ObjectID)
	}
	typ := r.Data.Content.Type
	if typ == "" {
		typ = r.Data.Type
	}
	return entity.MoveObject{
		ObjectID: r.Data.ObjectID,
		Version:  r.Data.Version,
		Type:     typ,
		Fields:   r.Data.Content.Fields,
	}, nil
}
